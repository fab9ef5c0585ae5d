package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/testutil"
)

// execute runs the CLI with the given args and returns captured stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunInit_bindsDirectory(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := t.TempDir()

	_, err := execute(t,
		"--dir", dir, "--server", srv.URL,
		"init", "--url", srv.ProjectURL(),
		"--email", "user@example.com", "--password", "hunter2")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	repo, err := state.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !repo.State.Initialized() {
		t.Error("state should be initialized")
	}
	if repo.State.Project.ID != srv.ProjectID {
		t.Errorf("project id = %q, want %q", repo.State.Project.ID, srv.ProjectID)
	}
	if repo.State.Organisation.Name != srv.OrgName {
		t.Errorf("organisation = %q, want %q", repo.State.Organisation.Name, srv.OrgName)
	}
}

func TestRunInit_forwardsCredentialsVerbatim(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := t.TempDir()

	email := "Weird+Address@Example.COM"
	password := `p@ss "word"`
	_, err := execute(t,
		"--dir", dir, "--server", srv.URL,
		"init", "--url", srv.ProjectURL(),
		"--email", email, "--password", password, "--no-save-creds")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if srv.LoginEmail != email || srv.LoginPassword != password {
		t.Errorf("server saw %q/%q, want %q/%q", srv.LoginEmail, srv.LoginPassword, email, password)
	}
}

func TestRunInit_missingDirAbortsBeforeNetwork(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := execute(t,
		"--dir", missing, "--server", srv.URL,
		"init", "--url", srv.ProjectURL(),
		"--email", "user@example.com", "--password", "hunter2")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if srv.LoginEmail != "" {
		t.Error("no request should have reached the server")
	}
}

func TestRunInit_alreadyInitialized(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := t.TempDir()

	args := []string{
		"--dir", dir, "--server", srv.URL,
		"init", "--url", srv.ProjectURL(),
		"--email", "user@example.com", "--password", "hunter2",
	}
	if _, err := execute(t, args...); err != nil {
		t.Fatalf("first init failed: %v", err)
	}

	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("second init should succeed without changes: %v", err)
	}
	if !strings.Contains(out, "already has initialized project") {
		t.Errorf("output = %q, want already-initialized notice", out)
	}
}

func TestRunInit_invalidURL(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := t.TempDir()

	_, err := execute(t,
		"--dir", dir, "--server", srv.URL,
		"init", "--url", srv.URL+"/workbench/myprojects",
		"--email", "user@example.com", "--password", "hunter2")
	if err == nil {
		t.Fatal("expected error for invalid project url")
	}
	if _, statErr := os.Stat(filepath.Join(dir, state.FileName)); !os.IsNotExist(statErr) {
		t.Error("no state file should be written for invalid url")
	}
}
