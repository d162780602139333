package main

import (
	"github.com/spf13/cobra"

	"github.com/stine-ri/wings-of-memory/internal/session"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Inspect the local session identity"}

	var memorial string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the session ID (created on first use)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.sessions()
			if memorial != "" {
				a.printf("%s\t%s\n", session.MemorialScope(memorial), p.ForMemorial(cmd.Context(), memorial))
				return nil
			}
			a.printf("%s\t%s\n", session.CurrentUserKey, p.CurrentUser(cmd.Context()))
			return nil
		},
	}
	show.Flags().StringVarP(&memorial, "memorial", "m", "", "Show the tribute session of this memorial instead")
	cmd.AddCommand(show)
	return cmd
}
