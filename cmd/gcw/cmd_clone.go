package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

func newCloneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone <project-url> [dest]",
		Short: "Initialize a new directory from a project and pull everything",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runClone,
	}
	cmd.Flags().Bool("quiet", false, "Suppress per-file output")
	addCredFlags(cmd)
	return cmd
}

func runClone(cmd *cobra.Command, args []string) error {
	projectURL := args[0]
	quiet, _ := cmd.Flags().GetBool("quiet")

	client, err := loggedInClient(cmd)
	if err != nil {
		return err
	}

	projectID, err := workbench.ProjectIDFromURL(projectURL)
	if err != nil {
		return err
	}
	project, err := client.ProjectInfo(cmd.Context(), projectID)
	if err != nil {
		return err
	}

	dest := project.Name
	if len(args) == 2 {
		dest = args[1]
	}
	dest, err = filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}
	if _, err := os.Stat(filepath.Join(dest, state.FileName)); err == nil {
		return fmt.Errorf("destination %s is already a GrabCAD project", dest)
	}
	if err := os.MkdirAll(dest, 0755); err != nil { //nolint:gosec // project tree must be user-accessible
		return fmt.Errorf("creating destination directory: %w", err)
	}

	if err := initRepo(cmd, client, dest, projectURL); err != nil {
		return err
	}
	repo, err := state.Open(dest)
	if err != nil {
		return err
	}

	report, err := pullRepo(cmd, client, repo, false, quiet)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !quiet {
		printReport(cmd, report)
	}
	_, _ = fmt.Fprintf(out, "Cloned project %q into %s\n", project.Name, dest)
	return nil
}
