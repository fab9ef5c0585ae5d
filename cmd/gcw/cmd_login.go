package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/creds"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log into a GrabCAD account and store credentials",
		RunE:  runLogin,
	}
	addCredFlags(cmd)
	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	noSave, _ := cmd.Flags().GetBool("no-save-creds")

	if email == "" || password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("missing credentials: pass --email and --password, or run in a terminal")
		}
		var err error
		if email == "" {
			email, err = promptInput("GrabCAD email", "you@example.com", notEmpty("email"))
			if err != nil {
				return err
			}
			email = strings.TrimSpace(email)
		}
		if password == "" {
			password, err = promptPassword("GrabCAD password", notEmpty("password"))
			if err != nil {
				return err
			}
		}
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := client.Login(cmd.Context(), email, password); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if noSave {
		_, _ = fmt.Fprintln(out, "Logged in. Credentials were not stored (--no-save-creds).")
		return nil
	}
	if err := creds.Store(email, password); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "Logged in. Credentials stored in the system keyring.")
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials from the system keyring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := creds.Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed.")
			return nil
		},
	}
}
