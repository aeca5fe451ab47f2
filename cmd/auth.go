package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/marcus/plansync/internal/ghclient"
	"github.com/marcus/plansync/internal/output"
	"github.com/marcus/plansync/internal/syncconfig"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage GitHub authentication",
	GroupID: "system",
}

// readToken reads a token from the terminal without echo, or a line from
// stdin when it is not a terminal.
func readToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("GitHub token: ")
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub token",
	Long: `Store a personal access token with repo scope in ~/.config/plansync/auth.json.

The token is checked against the API and the login it belongs to is recorded
for branch naming. PLANSYNC_TOKEN or GITHUB_TOKEN take priority when set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			var err error
			if token, err = readToken(); err != nil {
				output.Error("read token: %v", err)
				return err
			}
		}
		if token == "" {
			err := fmt.Errorf("token required")
			output.Error("%v", err)
			return err
		}

		settings, err := syncconfig.Load()
		if err != nil {
			output.Error("load settings: %v", err)
			return err
		}
		owner, repo := settings.RepoOwner, settings.RepoName
		if owner == "" || repo == "" {
			// Any repository will do for resolving the login.
			owner, repo = "octocat", "hello-world"
		}
		client, err := ghclient.New(cmd.Context(), ghclient.Config{Owner: owner, Repo: repo, APIURL: settings.APIURL, Token: token})
		if err != nil {
			output.Error("%v", err)
			return err
		}
		login, err := client.CurrentUser(cmd.Context())
		if err != nil {
			output.Error("verify token: %v", err)
			return err
		}

		if settings.RepoOwner != "" && settings.RepoName != "" {
			ok, err := client.IsCollaborator(cmd.Context(), login)
			if err != nil {
				output.Warning("could not check access to %s: %v", client.Repo(), err)
			} else if !ok {
				output.Warning("%s is not a collaborator on %s; submits will fail", login, client.Repo())
			}
		}

		if err := syncconfig.SaveAuth(&syncconfig.AuthCredentials{Token: token, Login: login}); err != nil {
			output.Error("save credentials: %v", err)
			return err
		}
		output.Success("Logged in as %s", login)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncconfig.ClearAuth(); err != nil {
			output.Error("logout: %v", err)
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, source := syncconfig.GetToken()
		if token == "" {
			fmt.Println("Not logged in.")
			return nil
		}
		creds, err := syncconfig.LoadAuth()
		if err != nil {
			output.Error("load auth: %v", err)
			return err
		}

		prefix := token
		if len(prefix) > 8 {
			prefix = prefix[:8] + "..."
		}
		if creds != nil && creds.Login != "" {
			fmt.Printf("Login:  %s\n", creds.Login)
		}
		fmt.Printf("Token:  %s\n", prefix)
		fmt.Printf("Source: %s\n", source)
		return nil
	},
}

func init() {
	authLoginCmd.Flags().String("token", "", "Token to store (default: prompt)")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
