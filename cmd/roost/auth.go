package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"roost/pkg/auth"
	"roost/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage OAuth credential profiles",
	Long: `Manage the OAuth credentials roost signs requests with.

Profiles are stored as <profile dir>/<name>.profile JSON files. The system
keychain, an encrypted file and ROOST_* environment variables are used as
fallbacks when a profile file does not exist.

Never share your credentials or profile files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a credential profile",
	Long: `Store the four OAuth values as a named profile (default "default").

The secrets are read without echo. With --secure the profile goes to the
system keychain or encrypted file instead of a plain profile file.`,
	Example: `  roost auth login
  roost auth login research --secure`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Args:  cobra.NoArgs,
	RunE:  runAuthList,
}

// authDeleteCmd represents the auth delete command
var authDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"logout"},
	Short:   "Remove a stored profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runAuthDelete,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which credentials would be used, with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runAuthShow,
}

var secureLogin bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authDeleteCmd)
	authCmd.AddCommand(authShowCmd)

	loginCmd.Flags().BoolVar(&secureLogin, "secure", false, "store in the keychain or encrypted file instead of a profile file")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(cfg.Profile.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := cfg.Profile.Name
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	auth.WriteSetupGuide(ui.Output, cfg.Profile.Dir)
	reader := bufio.NewReader(os.Stdin)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(ui.Output, "\nProfile '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Fprintln(ui.Output)
	consumerKey, err := prompt(reader, "consumer_key: ")
	if err != nil {
		return err
	}
	secretKey, err := promptSecret(reader, "secret_key (hidden): ")
	if err != nil {
		return err
	}
	otoken, err := prompt(reader, "otoken: ")
	if err != nil {
		return err
	}
	otokenSecret, err := promptSecret(reader, "otoken_secret (hidden): ")
	if err != nil {
		return err
	}

	profile := &auth.Profile{
		Name: name,
		Credentials: auth.Credentials{
			ConsumerKey:  consumerKey,
			SecretKey:    secretKey,
			OToken:       otoken,
			OTokenSecret: otokenSecret,
		},
		LastModified: time.Now(),
	}

	if secureLogin {
		err = manager.StoreSecure(profile)
	} else {
		err = manager.Store(profile)
	}
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Profile saved: %s", name))
	if name != "default" {
		fmt.Fprintf(ui.Output, "Use it with: roost --profile %s rlimit\n", name)
	}
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(cfg.Profile.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profiles, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(profiles) == 0 {
		ui.PrintInfo("No stored profiles", "use 'roost auth login' to add one")
		return nil
	}

	ui.RenderProfiles(cmd.OutOrStdout(), profiles)
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(cfg.Profile.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := strings.TrimSpace(args[0])
	if err := manager.Delete(name); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return fmt.Errorf("no profile named %q", name)
		}
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	ui.PrintSuccess("Profile removed: " + name)
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	creds, err := credentials()
	if err != nil {
		return err
	}

	name := cfg.Profile.Name
	if cfg.Profile.File != "" {
		name = cfg.Profile.File
	}
	ui.RenderProfiles(cmd.OutOrStdout(), []*auth.Profile{{Name: name, Credentials: creds}})
	return nil
}

func prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(ui.Output, label)
	input, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// promptSecret reads without echo on a terminal and falls back to a plain
// line read otherwise.
func promptSecret(r *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(r, label)
	}

	fmt.Fprint(ui.Output, label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(ui.Output)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
