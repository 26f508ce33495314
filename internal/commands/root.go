package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taigit/internal/config"
	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/fetch"
	"github.com/balkashynov/taigit/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfg *config.Config

	debugFlag bool
	dbFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "taigit",
	Short: "Pull Taiga and Git hosting records into a local database",
	Long: `taigit imports sprints, members, user stories and tasks from a Taiga project
and commits from GitHub and GitLab into a local SQLite database.
Re-running a sync merges the new data into what is already stored.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if debugFlag {
			c.Debug = true
		}
		if dbFlag != "" {
			c.DBPath = dbFlag
		}

		logPath, err := logging.Initialize(c.Debug, c.LogFile, c.MaxLogFiles)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else if logPath != "" {
			fmt.Fprintf(os.Stderr, "Debug log: %s\n", logPath)
		}

		cfg = c
		return nil
	},
}

// withStore opens the database and wires Ctrl-C into the context before
// running fn. Errors are printed, not returned.
func withStore(fn func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := db.Open(cfg.DBPath, logging.Logger)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer store.Close()

		if err := fn(ctx, store, cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// newClient creates a fetch client honouring the configured timeout
func newClient(opts ...fetch.Option) *fetch.Client {
	opts = append([]fetch.Option{fetch.WithLogger(logging.Logger)}, opts...)
	return fetch.NewClient(cfg.FetchTimeout, opts...)
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Write debug logs")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Path to the SQLite database")

	rootCmd.AddCommand(siteCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(codingCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
