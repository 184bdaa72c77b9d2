package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xwatch/pkg/auth"
	"xwatch/pkg/ui"
)

var (
	importFile  string
	importStdin bool
	importUA    string
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored login sessions",
	Long: `Manage the X login sessions xwatch replays into the browser.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (XWATCH_COOKIES, read only)

Never share exported cookies or the session store!`,
}

var authImportCmd = &cobra.Command{
	Use:   "import [account]",
	Short: "Store a session from a browser cookie export",
	Long: `Store a login session from an exported cookie file, or from a Cookie
header pasted on standard input (input is hidden when reading from a terminal).

The export must contain the auth_token cookie.`,
	Example: `  # Import a cookie-editor JSON export
  xwatch auth import --file cookies.json

  # Paste a Cookie header for a second account
  xwatch auth import work --stdin`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthImport,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE:  runAuthList,
}

var authRemoveCmd = &cobra.Command{
	Use:     "remove <account>",
	Aliases: []string{"rm"},
	Short:   "Delete a stored session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Session %q removed", args[0]))
		return nil
	},
}

var authGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to export cookies from a logged-in browser",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.WriteCookieExportGuide(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authImportCmd, authListCmd, authRemoveCmd, authGuideCmd)

	authImportCmd.Flags().StringVarP(&importFile, "file", "f", "", "cookie export file (JSON array, {\"cookies\": [...]} or Cookie header)")
	authImportCmd.Flags().BoolVar(&importStdin, "stdin", false, "read the cookies from standard input")
	authImportCmd.Flags().StringVar(&importUA, "user-agent", "", "user agent of the browser the cookies came from")
}

func runAuthImport(cmd *cobra.Command, args []string) error {
	account := "default"
	if len(args) > 0 {
		account = args[0]
	}

	var (
		session *auth.Session
		err     error
	)
	switch {
	case importFile != "" && importStdin:
		return fmt.Errorf("use either --file or --stdin, not both")
	case importFile != "":
		session, err = auth.ImportCookieFile(importFile, account)
	case importStdin:
		var data []byte
		data, err = readSecret(cmd.OutOrStdout(), "Paste cookies (JSON or Cookie header): ")
		if err != nil {
			return err
		}
		session = &auth.Session{Account: account, LastModified: time.Now()}
		session.Cookies, err = auth.ParseCookies([]byte(strings.TrimSpace(string(data))))
	default:
		auth.WriteCookieExportGuide(cmd.OutOrStdout())
		return fmt.Errorf("nothing to import: pass --file or --stdin")
	}
	if err != nil {
		return err
	}
	session.UserAgent = importUA

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	if err := manager.Store(session); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Session %q stored", account))
	ui.PrintInfo("Cookies", session.CookieNames())
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	sessions, err := manager.List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		ui.PrintWarning("No stored sessions. Run 'xwatch auth import' first.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tCOOKIES\tAUTH TOKEN\tUPDATED\tSTATUS")
	now := time.Now()
	for _, s := range sessions {
		masked := auth.SanitizeSession(s)
		token := "-"
		if c, ok := masked.Cookie(auth.AuthCookie); ok {
			token = c.Value
		}
		state := "ok"
		if s.Expired(now) {
			state = "expired"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			s.Account, len(s.Cookies), token, s.LastModified.Format("2006-01-02 15:04"), state)
	}
	return w.Flush()
}

// readSecret reads one line without echo when stdin is a terminal
func readSecret(out io.Writer, prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(out, prompt)
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		return data, err
	}
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return nil, fmt.Errorf("failed to read standard input: %w", err)
	}
	return data, nil
}
