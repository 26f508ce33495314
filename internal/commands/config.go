package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/balkashynov/taigit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect taigit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Printf("Error: failed to marshal config: %v\n", err)
			return
		}
		fmt.Println("# Merged configuration (file + .env + environment + flags)")
		fmt.Print(string(data))
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config:   %s\n", config.FilePath())
		fmt.Printf("Database: %s\n", cfg.DBPath)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
