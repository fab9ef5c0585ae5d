package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/fsync"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracked files and their local state",
		RunE:  runStatus,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

type fileStatus struct {
	Path    string `json:"path"`
	Version int    `json:"version"`
	State   string `json:"state"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	dir, err := repoDir(cmd)
	if err != nil {
		return err
	}
	repo, err := state.Open(dir)
	if err != nil {
		return err
	}

	syncer := &fsync.Syncer{Root: repo.Dir, State: repo.State}
	statuses, err := syncer.LocalStatus()
	if err != nil {
		return err
	}

	rows := make([]fileStatus, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, fileStatus{
			Path:    s.File.RelPath(),
			Version: s.File.Version,
			State:   string(s.Status),
		})
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	_, _ = fmt.Fprintf(out, "Project %q (%d tracked files)\n", repo.State.Project.Name, len(rows))
	tbl := ui.NewTable(out, "file", "version", "state")
	for _, r := range rows {
		tbl.Row(r.Path, r.Version, r.State)
	}
	return tbl.Flush()
}
