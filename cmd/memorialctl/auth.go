package main

import (
	"github.com/spf13/cobra"

	"github.com/stine-ri/wings-of-memory/client"
)

func (a *app) saveToken(cmd *cobra.Command, res *client.AuthResponse) error {
	if err := a.kv.SetItem(cmd.Context(), tokenKey, res.Token); err != nil {
		return err
	}
	a.printf("signed in as %s (%s)\n", res.User.Email, res.User.ID)
	return nil
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the token in local state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return a.saveToken(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var req client.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and keep the token in local state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.saveToken(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "Your name")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
