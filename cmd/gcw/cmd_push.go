package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/fsync"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push --message <msg> [path...]",
		Short: "Upload locally changed files as a new commit",
		RunE:  runPush,
	}
	cmd.Flags().StringP("message", "m", "", "Commit message")
	_ = cmd.MarkFlagRequired("message")
	addCredFlags(cmd)
	return cmd
}

func runPush(cmd *cobra.Command, args []string) error {
	message, _ := cmd.Flags().GetString("message")

	dir, err := repoDir(cmd)
	if err != nil {
		return err
	}
	repo, err := state.Open(dir)
	if err != nil {
		return err
	}

	client, err := loggedInClient(cmd)
	if err != nil {
		return err
	}
	if err := client.UseState(repo.State); err != nil {
		return err
	}

	syncer := &fsync.Syncer{Root: repo.Dir, Source: client, State: repo.State}
	modified, err := syncer.ModifiedFiles()
	if err != nil {
		return err
	}
	modified = filterByPaths(modified, args)
	if len(modified) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Nothing to push.")
		return nil
	}

	files := make([]workbench.File, 0, len(modified))
	for _, ref := range modified {
		files = append(files, workbench.File{FileRef: ref})
	}
	if err := client.Upload(cmd.Context(), files, repo.Dir, message); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range files {
		_, _ = fmt.Fprintf(out, "Pushed %s\n", f.RelPath())
	}
	_, _ = fmt.Fprintf(out, "Created commit %q (%d files)\n", message, len(files))
	return nil
}

// filterByPaths narrows the candidate set to the given relative paths.
// An empty path list keeps everything.
func filterByPaths(files []workbench.FileRef, paths []string) []workbench.FileRef {
	if len(paths) == 0 {
		return files
	}
	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		wanted[p] = true
	}
	var result []workbench.FileRef
	for _, f := range files {
		if wanted[f.RelPath()] {
			result = append(result, f)
		}
	}
	return result
}
