package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/testutil"
)

func TestRunPush_uploadsModifiedFiles(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := pulledRepo(t, srv)

	if err := os.WriteFile(filepath.Join(dir, "frame.sldprt"), []byte("frame-v1-edited"), 0644); err != nil {
		t.Fatal(err)
	}

	args := append([]string{
		"--dir", dir, "--server", srv.URL,
		"push", "-m", "tweak frame geometry",
	}, credArgs...)
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if !strings.Contains(out, "Pushed frame.sldprt") {
		t.Errorf("output = %q, want pushed file", out)
	}

	if got := string(srv.Uploaded["frame.sldprt"]); got != "frame-v1-edited" {
		t.Errorf("uploaded content = %q, want edited content", got)
	}
	if srv.CommitMessage != "tweak frame geometry" {
		t.Errorf("commit message = %q", srv.CommitMessage)
	}
}

func TestRunPush_nothingToPush(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := pulledRepo(t, srv)

	args := append([]string{
		"--dir", dir, "--server", srv.URL,
		"push", "-m", "noop",
	}, credArgs...)
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if !strings.Contains(out, "Nothing to push.") {
		t.Errorf("output = %q, want nothing-to-push notice", out)
	}
	if len(srv.Uploaded) != 0 {
		t.Errorf("uploaded = %v, want none", srv.Uploaded)
	}
}

func TestRunPush_pathFilter(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := pulledRepo(t, srv)

	for _, rel := range []string{"frame.sldprt", filepath.Join("rotors", "rotor.sldprt")} {
		if err := os.WriteFile(filepath.Join(dir, rel), []byte("edited "+rel), 0644); err != nil {
			t.Fatal(err)
		}
	}

	args := append([]string{
		"--dir", dir, "--server", srv.URL,
		"push", "-m", "rotor only", "rotors/rotor.sldprt",
	}, credArgs...)
	if _, err := execute(t, args...); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	if _, ok := srv.Uploaded["rotor.sldprt"]; !ok {
		t.Errorf("uploaded = %v, want rotor.sldprt", srv.Uploaded)
	}
	if _, ok := srv.Uploaded["frame.sldprt"]; ok {
		t.Error("frame.sldprt should have been filtered out")
	}
}

func TestRunPush_requiresMessage(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := pulledRepo(t, srv)

	args := append([]string{"--dir", dir, "--server", srv.URL, "push"}, credArgs...)
	if _, err := execute(t, args...); err == nil {
		t.Fatal("expected error for missing --message")
	}
}
