package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbmwhylt/wlt-team-space/pkg/client"
)

const passwordEnv = "WLT_PASSWORD"

func (c *console) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or $%s) are required", passwordEnv)
			}
			u, err := c.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			c.out.Success(fmt.Sprintf("Logged in as %s (%s)", u.UserName, u.Role))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *console) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := c.client.Logout(); err != nil {
				return err
			}
			c.out.Success("Logged out")
			return nil
		},
	}
}

func (c *console) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if err := c.client.Refresh(cmd.Context()); err != nil {
				return err
			}
			u, _ := c.session.User()
			expires := c.session.LoginTime().Add(client.DefaultAutoLogoutAfter)
			return c.emit(u, func() error {
				return c.out.KeyValues([][2]string{
					{"ID", fmt.Sprint(u.ID)},
					{"User", u.UserName},
					{"Name", u.FirstName + " " + u.LastName},
					{"Email", u.Email},
					{"Role", u.Role},
					{"Session expires", expires.Local().Format(time.RFC1123)},
				})
			})
		},
	}
}

func (c *console) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			st, err := c.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(st, func() error {
				return c.out.KeyValues([][2]string{
					{"Users", fmt.Sprint(st.Users.Total)},
					{"Active users", fmt.Sprint(st.Users.Active)},
					{"Admins", fmt.Sprint(st.Users.ByRole["admin"] + st.Users.ByRole["super-admin"])},
					{"Microsites", fmt.Sprint(st.Microsites["total"])},
					{"Consumer", fmt.Sprint(st.Microsites["consumer"])},
					{"Business", fmt.Sprint(st.Microsites["business"])},
				})
			})
		},
	}
}
