package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/api"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/creds"
)

// addCredFlags registers the credential flags shared by every command that
// talks to the Workbench server.
func addCredFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "GrabCAD account email")
	cmd.Flags().String("password", "", "GrabCAD account password")
	cmd.Flags().Bool("no-save-creds", false, "Do not store credentials in the system keyring")
}

// credManager builds a credential manager from the command's flags.
func credManager(cmd *cobra.Command) creds.Manager {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	noSave, _ := cmd.Flags().GetBool("no-save-creds")
	return creds.Manager{Email: email, Password: password, NoSave: noSave}
}

// newClient creates an API client for the configured server.
func newClient(cmd *cobra.Command) (*api.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	return api.New(server)
}

// loggedInClient resolves credentials and opens a Workbench session.
func loggedInClient(cmd *cobra.Command) (*api.Client, error) {
	email, password, err := credManager(cmd).Resolve()
	if err != nil {
		return nil, err
	}
	client, err := newClient(cmd)
	if err != nil {
		return nil, err
	}
	if err := client.Login(cmd.Context(), email, password); err != nil {
		return nil, err
	}
	return client, nil
}

// repoDir resolves the --dir flag and verifies the directory exists. Commands
// call this before opening any connection, so a missing directory aborts
// without touching the network.
func repoDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving project directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("project directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project path %s is not a directory", dir)
	}
	return dir, nil
}
