package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sbmwhylt/wlt-team-space/internal/cli"
	"github.com/sbmwhylt/wlt-team-space/pkg/client"
)

const (
	defaultAPIURL = "http://localhost:5000/api"
	apiURLEnv     = "WLT_API_URL"
)

// console is the state shared by every command of one invocation.
type console struct {
	apiURL      string
	sessionPath string
	output      string

	out     *cli.Printer
	errOut  *cli.Printer
	client  *client.Client
	session *client.Session
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &console{out: cli.NewPrinter(stdout), errOut: cli.NewPrinter(stderr)}

	root := &cobra.Command{
		Use:           "wltctl",
		Short:         "Manage users and microsites",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.connect()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.session != nil {
				c.session.Close()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	apiURL := os.Getenv(apiURLEnv)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api", apiURL, "API base URL (env "+apiURLEnv+")")
	root.PersistentFlags().StringVar(&c.sessionPath, "session", defaultSessionPath(), "session file")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.usersCmd(),
		c.micrositesCmd(),
		c.statsCmd(),
	)

	return root
}

// run executes args and prints any error once, in the same form for every
// command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		cli.NewPrinter(stderr).Error(describe(err))
		return 1
	}
	return 0
}

func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotAuthenticated):
		return "not logged in; run wltctl login"
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized:
		return "session rejected by the server; run wltctl login"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return err.Error()
	}
}

func (c *console) connect() error {
	if c.output != "table" && c.output != "json" {
		return fmt.Errorf("unknown output format %q", c.output)
	}
	c.session = client.NewSession(client.NewFileStore(c.sessionPath))
	if _, err := c.session.Restore(); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	cl, err := client.New(c.apiURL, client.WithSession(c.session))
	if err != nil {
		return err
	}
	c.client = cl
	return nil
}

func (c *console) requireLogin() error {
	if !c.session.Authenticated() {
		return client.ErrNotAuthenticated
	}
	return nil
}

// emit writes v as JSON when --output=json and calls table otherwise.
func (c *console) emit(v any, table func() error) error {
	if c.output == "json" {
		enc := json.NewEncoder(c.out.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return table()
}

func defaultSessionPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(dir, "wltctl", "session.json")
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
