package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/creds"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment for common issues",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ok := true

	// Check server reachability.
	_, _ = fmt.Fprint(out, "Checking Workbench server... ")
	client, err := newClient(cmd)
	if err == nil {
		err = client.Ping(cmd.Context())
	}
	if err != nil {
		_, _ = fmt.Fprintf(out, "UNREACHABLE (%v)\n", err)
		ok = false
	} else {
		_, _ = fmt.Fprintln(out, "OK")
	}

	// Check keyring backend.
	_, _ = fmt.Fprint(out, "Checking system keyring... ")
	if err := creds.Available(); err != nil {
		_, _ = fmt.Fprintf(out, "UNAVAILABLE (%v)\n", err)
		_, _ = fmt.Fprintln(out, "  Use --no-save-creds with explicit --email/--password instead.")
		ok = false
	} else {
		_, _ = fmt.Fprintln(out, "OK")
	}

	// Check the state file, if the directory has one.
	_, _ = fmt.Fprint(out, "Checking project state... ")
	dir, err := repoDir(cmd)
	if err == nil {
		_, err = state.Open(dir)
	}
	switch {
	case err == nil:
		_, _ = fmt.Fprintln(out, "OK")
	case errors.Is(err, state.ErrNotInitialized):
		_, _ = fmt.Fprintln(out, "not a GrabCAD project (skipping)")
	default:
		_, _ = fmt.Fprintf(out, "BROKEN (%v)\n", err)
		ok = false
	}

	if ok {
		_, _ = fmt.Fprintln(out, "\nAll checks passed.")
		return nil
	}
	_, _ = fmt.Fprintln(out, "\nSome checks failed. See above for details.")
	return fmt.Errorf("doctor checks failed")
}
