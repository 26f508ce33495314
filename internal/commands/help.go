package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show help for taigit",
	Long:  `Display an overview of all taigit commands, or the help of one command.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if sub, _, err := rootCmd.Find(args); err == nil && sub != rootCmd {
				sub.Help()
				return
			}
		}
		showCustomHelp()
	},
}

func showCustomHelp() {
	fmt.Print(`
 _        _       _ _
| |_ __ _(_) __ _(_) |_
| __/ _' | |/ _' | | __|
| || (_| | | (_| | | |_
 \__\__,_|_|\__, |_|\__|
            |___/

taigit - Taiga + Git activity in one local database

SETUP:

  site set <taiga|github|gitlab>   Save credentials for a site
    -u, --username                 Account username
    -t, --token                    API token
    --target                       Taiga API URL, GitHub owner/repo or GitLab project
  site login taiga                 Log in with username and password
  site show                        Show configured sites
  link <project-slug>              Link the Taiga project to sync

SYNC:

  sync [entity]                    Import and merge (sprints|members|stories|tasks|commits|all)
    --full                         Refetch all commits, not only new ones
    --csv entity=path              Read a tracker entity from a CSV file or URL
    --no-ui                        No progress display

BROWSE:

  ls <entity>                      Browse a table (sprints|members|stories|tasks|commits|runs)
    --site                         github or gitlab for commits
    --json                         JSON output
    --no-ui                        Plain table output

    Quick actions:
      ↑/↓           Navigate
      ←/→           Change page
      /             Search
      c             Toggle coding mark (tasks)
      esc/q         Quit

  coding <task-ref>                Mark a task as coding
    --off                          Clear the mark
  export <entity> -o file.csv      Write a table to CSV with Taiga links
  clear <entity|all>               Delete a local table
  version                          Show version

GLOBAL FLAGS:

  --debug                          Write debug logs (or TAIGIT_DEBUG=1)
  --db                             Database path (or TAIGIT_DB)

`)
}
