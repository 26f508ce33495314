package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/taiga"
)

var knownSites = []string{models.SiteTaiga, models.SiteGitHub, models.SiteGitLab}

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage credentials for Taiga, GitHub and GitLab",
}

var siteSetCmd = &cobra.Command{
	Use:   "set <taiga|github|gitlab>",
	Short: "Save credentials and target for a site",
	Long: `Save credentials for a site. The target depends on the site:
  taiga   API URL (defaults to TAIGA_API_URL)
  github  owner/repo
  gitlab  project id or path`,
	Args: cobra.ExactArgs(1),
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		name, err := checkSite(args[0])
		if err != nil {
			return err
		}

		username, _ := cmd.Flags().GetString("username")
		token, _ := cmd.Flags().GetString("token")
		target, _ := cmd.Flags().GetString("target")
		if name != models.SiteTaiga && target == "" {
			return fmt.Errorf("--target is required for %s", name)
		}

		if err := store.SaveSite(ctx, models.Site{Site: name, Username: username, Token: token, Target: target}); err != nil {
			return err
		}
		fmt.Printf("✅ Saved credentials for %s\n", name)
		return nil
	}),
}

var siteLoginCmd = &cobra.Command{
	Use:   "login taiga",
	Short: "Log in to Taiga with username and password and store the token",
	Args:  cobra.ExactArgs(1),
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		if name, err := checkSite(args[0]); err != nil {
			return err
		} else if name != models.SiteTaiga {
			return fmt.Errorf("login is only supported for taiga, use 'taigit site set %s --token'", name)
		}

		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		if username == "" || password == "" {
			if err := promptLogin(&username, &password); err != nil {
				return err
			}
		}

		site := models.Site{Site: models.SiteTaiga}
		if saved, err := store.GetSite(ctx, models.SiteTaiga); err == nil {
			site = *saved
		} else if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		token, err := taiga.Login(ctx, newClient(), taigaAPIURL(&site), username, password)
		if err != nil {
			return fmt.Errorf("taiga login failed: %w", err)
		}

		site.Username = username
		site.Token = token
		if err := store.SaveSite(ctx, site); err != nil {
			return err
		}
		fmt.Printf("✅ Logged in to Taiga as %s\n", username)
		return nil
	}),
}

var siteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved sites without their tokens",
	Args:  cobra.NoArgs,
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		fmt.Printf("%-8s %-20s %-8s %s\n", "SITE", "USERNAME", "TOKEN", "TARGET")
		fmt.Println(strings.Repeat("-", 60))
		for _, name := range knownSites {
			site, err := store.GetSite(ctx, name)
			if errors.Is(err, db.ErrNotFound) {
				fmt.Printf("%-8s %s\n", name, "not configured")
				continue
			}
			if err != nil {
				return err
			}
			token := "none"
			if site.Token != "" {
				token = "saved"
			}
			fmt.Printf("%-8s %-20s %-8s %s\n", name, site.Username, token, site.Target)
		}

		if project, err := store.LinkedProject(ctx); err == nil {
			fmt.Printf("\n🔗 Linked project: %s (%s)\n", project.Name, project.Slug)
		}
		return nil
	}),
}

// promptLogin asks for whatever the flags left empty
func promptLogin(username, password *string) error {
	var fields []huh.Field
	if *username == "" {
		fields = append(fields, huh.NewInput().
			Title("Taiga username or email").
			Value(username).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("username required")
				}
				return nil
			}))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("login cancelled")
		}
		return err
	}
	return nil
}

func checkSite(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range knownSites {
		if s == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown site '%s', expected one of %s", name, strings.Join(knownSites, ", "))
}

// taigaAPIURL is the saved target, else the configured API URL
func taigaAPIURL(site *models.Site) string {
	if site != nil && site.Target != "" {
		return strings.TrimRight(site.Target, "/")
	}
	return cfg.TaigaAPIURL
}

func init() {
	siteSetCmd.Flags().StringP("username", "u", "", "Account username")
	siteSetCmd.Flags().StringP("token", "t", "", "API token")
	siteSetCmd.Flags().String("target", "", "API URL, owner/repo or project id")

	siteLoginCmd.Flags().StringP("username", "u", "", "Taiga username or email")
	siteLoginCmd.Flags().StringP("password", "p", "", "Taiga password")

	siteCmd.AddCommand(siteSetCmd)
	siteCmd.AddCommand(siteLoginCmd)
	siteCmd.AddCommand(siteShowCmd)
}
