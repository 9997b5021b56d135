package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or change preferences",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show preferences",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := c.settingsService(cmd.Context())
				if err != nil {
					return err
				}
				prefs, err := svc.Get(cmd.Context())
				if err != nil {
					return err
				}
				return c.showPrefs(prefs)
			},
		},
		&cobra.Command{
			Use:       "set <theme|server|category> <value>",
			Short:     "Change one preference",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{"theme", "server", "category"},
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := c.settingsService(cmd.Context())
				if err != nil {
					return err
				}
				prefs, err := svc.Set(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return c.showPrefs(prefs)
			},
		},
	)
	return cmd
}

func (c *cli) showPrefs(p domain.Preferences) error {
	if c.json {
		return c.printJSON(p)
	}
	c.printf("theme:    %s\nserver:   %s\ncategory: %s\n", p.Theme, p.PreferredServer, p.PreferredCategory)
	return nil
}

func newLoginCmd(c *cli) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Record the signed-in identity in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.sessionService().SignIn(cmd.Context(), domain.User{DisplayName: name, Email: email})
			if err != nil {
				return err
			}
			c.printf("signed in as %s\n", u.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Nom affiché")
	cmd.Flags().StringVar(&email, "email", "", "Adresse e-mail")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.sessionService().SignOut(cmd.Context()); err != nil {
				return err
			}
			c.printf("signed out\n")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok, err := c.sessionService().Current(cmd.Context())
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(map[string]any{"signedIn": ok, "user": u})
			}
			if !ok {
				return fmt.Errorf("not signed in")
			}
			c.printf("%s <%s>\n", u.DisplayName, u.Email)
			return nil
		},
	}
}
