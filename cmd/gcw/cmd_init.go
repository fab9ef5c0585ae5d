package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/api"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init --url <project-url>",
		Short: "Bind a directory to a GrabCAD Workbench project",
		RunE:  runInit,
	}
	cmd.Flags().String("url", "", "Workbench project URL")
	_ = cmd.MarkFlagRequired("url")
	addCredFlags(cmd)
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	projectURL, _ := cmd.Flags().GetString("url")

	dir, err := repoDir(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if r, err := state.Open(dir); err == nil {
		_, _ = fmt.Fprintf(out, "Directory already has initialized project %q. Leaving.\n", r.State.Project.Name)
		return nil
	} else if !errors.Is(err, state.ErrNotInitialized) {
		return err
	}

	client, err := loggedInClient(cmd)
	if err != nil {
		return err
	}

	if err := initRepo(cmd, client, dir, projectURL); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Initialized GrabCAD project %q in %s\n", client.Project().Name, dir)
	return nil
}

// initRepo fetches project metadata for the URL and writes a fresh state
// file into dir. The client's default project is set as a side effect.
func initRepo(cmd *cobra.Command, client *api.Client, dir, projectURL string) error {
	projectID, err := workbench.ProjectIDFromURL(projectURL)
	if err != nil {
		return err
	}

	project, err := client.ProjectInfo(cmd.Context(), projectID)
	if err != nil {
		return err
	}

	r, err := state.Create(dir)
	if err != nil {
		return err
	}
	r.State.ToolVersion = version
	r.State.GeneratedAt = time.Now().Format(time.RFC3339)
	r.State.Project = project
	r.State.Organisation = &project.Org
	if err := r.Save(); err != nil {
		return err
	}

	return client.UseState(r.State)
}
