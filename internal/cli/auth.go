package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"focustimer/internal/client"
	"focustimer/internal/credentials"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the focus server",
	Long:  "Sign in to the focus server. Guest tasks and settings on this machine are discarded.",
	RunE:  withApp(runLogin),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  withApp(runRegister),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and continue as a guest",
	RunE:  withApp(runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  withApp(runWhoami),
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, registerCmd} {
		cmd.Flags().String("email", "", "Account email")
		cmd.Flags().String("password", "", "Account password (prompted when empty)")
	}
	registerCmd.Flags().String("username", "", "Display name (defaults to the email name)")
}

func runLogin(cmd *cobra.Command, args []string, a *app) error {
	email, password, err := credentialsFromFlags(cmd)
	if err != nil {
		return err
	}

	result, err := a.api.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return finishLogin(cmd, a, result)
}

func runRegister(cmd *cobra.Command, args []string, a *app) error {
	email, password, err := credentialsFromFlags(cmd)
	if err != nil {
		return err
	}
	username, _ := cmd.Flags().GetString("username")

	result, err := a.api.Register(cmd.Context(), email, username, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return finishLogin(cmd, a, result)
}

func finishLogin(cmd *cobra.Command, a *app, result *client.AuthResult) error {
	account := credentials.Account{
		UserID:   result.User.ID,
		Email:    result.User.Email,
		Username: result.User.Username,
	}
	if err := a.creds.Login(result.Token, account); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (level %d, %d xp)\n",
		result.User.Username, result.User.Level, result.User.XP)
	return nil
}

func runLogout(cmd *cobra.Command, args []string, a *app) error {
	if !a.creds.Authenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "Already signed out.")
		return nil
	}
	if err := a.creds.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out. Continuing as guest.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string, a *app) error {
	if !a.creds.Authenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "guest")
		return nil
	}
	user, err := a.api.Profile(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nlevel %d, %d xp\n", user.Username, user.Email, user.Level, user.XP)
	return nil
}

func credentialsFromFlags(cmd *cobra.Command) (string, string, error) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	reader := bufio.NewReader(cmd.InOrStdin())
	var err error
	if email == "" {
		if email, err = prompt(cmd.OutOrStdout(), reader, "Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = prompt(cmd.OutOrStdout(), reader, "Password: "); err != nil {
			return "", "", err
		}
	}
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password are required")
	}
	return email, password, nil
}

func prompt(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
