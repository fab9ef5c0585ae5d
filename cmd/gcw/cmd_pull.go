package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/api"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/fsync"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
)

func newPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Integrate remote changes into the local tree",
		RunE:  runPull,
	}
	cmd.Flags().Bool("force", false, "Overwrite locally changed files")
	cmd.Flags().Bool("quiet", false, "Suppress per-file output")
	addCredFlags(cmd)
	return cmd
}

func runPull(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	quiet, _ := cmd.Flags().GetBool("quiet")

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

	report, err := pullRepo(cmd, client, repo, force, quiet)
	if err != nil {
		return err
	}

	if !quiet {
		printReport(cmd, report)
	}
	return nil
}

// pullRepo fetches commits newer than the local log and applies them to the
// repo tree, persisting the updated state.
func pullRepo(cmd *cobra.Command, client *api.Client, repo *state.Repo, force, quiet bool) (*fsync.Report, error) {
	if err := client.UseState(repo.State); err != nil {
		return nil, err
	}

	since := time.Unix(0, 0)
	if last := repo.State.LastCommit(); last != nil {
		since = last.CreatedAt
	}
	commits, err := client.CommitsSince(cmd.Context(), since)
	if err != nil {
		return nil, err
	}
	_, remoteOnly := repo.State.Diff(commits)

	syncer := &fsync.Syncer{
		Root:   repo.Dir,
		Source: client,
		State:  repo.State,
		Output: cmd.OutOrStdout(),
		Quiet:  quiet,
	}
	report, err := syncer.Pull(cmd.Context(), remoteOnly, force)
	if err != nil {
		return nil, err
	}

	repo.State.ToolVersion = version
	repo.State.GeneratedAt = time.Now().Format(time.RFC3339)
	if err := repo.Save(); err != nil {
		return nil, err
	}
	return report, nil
}

func printReport(cmd *cobra.Command, report *fsync.Report) {
	out := cmd.OutOrStdout()
	if len(report.Removed) > 0 {
		_, _ = fmt.Fprintf(out, "Removed: %s\n", strings.Join(report.Removed, ", "))
	}
	if len(report.Downloaded) > 0 {
		_, _ = fmt.Fprintf(out, "Downloaded: %s\n", strings.Join(report.Downloaded, ", "))
	}
	if len(report.Skipped) > 0 {
		_, _ = fmt.Fprintf(out, "Local changes exist, not overwritten (use --force): %s\n",
			strings.Join(report.Skipped, ", "))
	}
	if len(report.Removed)+len(report.Downloaded)+len(report.Skipped) == 0 {
		_, _ = fmt.Fprintln(out, "Already up to date.")
	}
}
