package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbmwhylt/wlt-team-space/pkg/client"
)

func (c *console) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage dashboard accounts",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.connect(); err != nil {
				return err
			}
			return c.requireLogin()
		},
	}
	cmd.AddCommand(c.usersListCmd(), c.usersGetCmd(), c.usersCreateCmd(), c.usersUpdateCmd(), c.usersDeleteCmd(), c.usersPasswordCmd())
	return cmd
}

func (c *console) usersListCmd() *cobra.Command {
	var role, status string
	var refresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := c.client.Users.Get(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			list := all[:0:0]
			for _, u := range all {
				if (role == "" || strings.EqualFold(u.Role, role)) && (status == "" || strings.EqualFold(u.Status, status)) {
					list = append(list, u)
				}
			}
			return c.emit(list, func() error { return c.userTable(list) })
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only users with this role")
	cmd.Flags().StringVar(&status, "status", "", "only users with this status")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func (c *console) usersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|username>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				u   client.User
				err error
			)
			if id, perr := parseID(args[0]); perr == nil {
				u, err = c.client.Users.GetByID(cmd.Context(), id)
			} else {
				u, err = c.client.Users.GetByUserName(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return c.emit(u, func() error { return c.userTable([]client.User{u}) })
		},
	}
}

func (c *console) usersCreateCmd() *cobra.Command {
	var in client.NewUser
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.client.Users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.out.Success(fmt.Sprintf("User %s created with id %d", u.UserName, u.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&in.UserName, "username", "", "unique user name")
	f.StringVar(&in.Email, "email", "", "unique email")
	f.StringVar(&in.Password, "password", "", "initial password")
	f.StringVar(&in.Gender, "gender", "", "gender")
	f.StringVar(&in.Role, "role", "", "user, admin or super-admin")
	f.StringVar(&in.Status, "status", "", "active or inactive")
	for _, name := range []string{"first-name", "last-name", "username", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *console) usersUpdateCmd() *cobra.Command {
	var firstName, lastName, userName, email, gender, role, status, avatar string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch client.UserPatch
			set := func(flag string, dst **string, v string) {
				if cmd.Flags().Changed(flag) {
					*dst = client.StringPtr(v)
				}
			}
			set("first-name", &patch.FirstName, firstName)
			set("last-name", &patch.LastName, lastName)
			set("username", &patch.UserName, userName)
			set("email", &patch.Email, email)
			set("gender", &patch.Gender, gender)
			set("role", &patch.Role, role)
			set("status", &patch.Status, status)
			set("avatar", &patch.Avatar, avatar)
			if patch == (client.UserPatch{}) {
				return fmt.Errorf("nothing to update")
			}
			u, err := c.client.Users.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			c.out.Success(fmt.Sprintf("User %s updated", u.UserName))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&firstName, "first-name", "", "first name")
	f.StringVar(&lastName, "last-name", "", "last name")
	f.StringVar(&userName, "username", "", "user name")
	f.StringVar(&email, "email", "", "email")
	f.StringVar(&gender, "gender", "", "gender")
	f.StringVar(&role, "role", "", "role (admins only)")
	f.StringVar(&status, "status", "", "status (admins only)")
	f.StringVar(&avatar, "avatar", "", "avatar URL")
	return cmd
}

func (c *console) usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.client.Users.Remove(cmd.Context(), id); err != nil {
				return err
			}
			c.out.Success(fmt.Sprintf("User %d deleted", id))
			return nil
		},
	}
}

func (c *console) usersPasswordCmd() *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "password <id>",
		Short: "Change your own password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.client.Users.ChangePassword(cmd.Context(), id, current, next); err != nil {
				return err
			}
			c.out.Success("Password updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func (c *console) userTable(list []client.User) error {
	rows := make([][]string, 0, len(list))
	for _, u := range list {
		rows = append(rows, []string{
			fmt.Sprint(u.ID),
			u.UserName,
			strings.TrimSpace(u.FirstName + " " + u.LastName),
			u.Email,
			u.Role,
			u.Status,
		})
	}
	return c.out.Table([]string{"ID", "USERNAME", "NAME", "EMAIL", "ROLE", "STATUS"}, rows)
}
