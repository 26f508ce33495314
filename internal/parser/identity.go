package parser

import "strings"

// UnknownContributor is the committer name used when no identity resolves
const UnknownContributor = "Unknown"

// ResolveContributor maps a commit author onto a known contributor.
// The login wins when known, then the local part of the email, otherwise "Unknown".
func ResolveContributor(known []string, login, email string) string {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}

	if login != "" && set[login] {
		return login
	}

	if at := strings.Index(email, "@"); at > 0 {
		candidate := email[:at]
		if set[candidate] {
			return candidate
		}
	}

	return UnknownContributor
}

// ResolveMemberName picks the label shown for a Taiga member.
// A full name is preferred when it is set and shorter than the username.
func ResolveMemberName(username, fullName string) string {
	fullName = strings.TrimSpace(fullName)
	if fullName != "" && !IsPlaceholder(fullName) && len(fullName) < len(username) {
		return fullName
	}
	if username == "" {
		return fullName
	}
	return username
}
