package tui

// Color constants for the taigit TUI theme
const (
	ColorBorder = "#36405A" // Slate

	// Text Colors
	ColorPrimaryText   = "#E6EAF2" // Titles, selected values
	ColorSecondaryText = "#A7B0C0" // Labels, empty states
	ColorDisabledText  = "#646B7A" // Null values
	ColorHelpText      = "240"     // Dark grey for help text

	// Accent Colors (Taiga teal)
	ColorAccentMain   = "#0F9E8E" // Selected row border, logo
	ColorAccentBright = "#5FD1C1" // Headers, highlights

	// State Colors
	ColorError   = "#EF4444" // Failed entities
	ColorSuccess = "#22C55E" // Completed, coding
	ColorWarning = "#F59E0B" // Anomalies, collisions
)
