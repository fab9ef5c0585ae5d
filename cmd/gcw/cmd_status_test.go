package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/testutil"
)

func pulledRepo(t *testing.T, srv *testutil.Server) string {
	t.Helper()
	srv.AddCommit(testutil.CommitFixture{
		ID: 101, Message: "initial", Time: 1100, Author: "alice",
		Changes: []testutil.ChangeFixture{
			{File: testutil.FileFixture{ID: 1, Name: "frame.sldprt", Path: "Drone", Version: 1, Content: "frame-v1"}, Added: true},
			{File: testutil.FileFixture{ID: 2, Name: "rotor.sldprt", Path: "Drone/rotors", Version: 1, Content: "rotor-v1"}, Added: true},
		},
	})
	dir := initializedRepo(t, srv)
	if _, err := pull(t, srv, dir, "--quiet"); err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	return dir
}

func TestRunStatus_table(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := pulledRepo(t, srv)

	if err := os.WriteFile(filepath.Join(dir, "frame.sldprt"), []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--dir", dir, "--server", srv.URL, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, `Project "Drone" (2 tracked files)`) {
		t.Errorf("output = %q, want project header", out)
	}
	if !strings.Contains(out, "modified") {
		t.Errorf("output = %q, want a modified row", out)
	}
	if !strings.Contains(out, "rotors/rotor.sldprt") {
		t.Errorf("output = %q, want relative paths", out)
	}
}

func TestRunStatus_json(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := pulledRepo(t, srv)

	if err := os.Remove(filepath.Join(dir, "rotors", "rotor.sldprt")); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--dir", dir, "--server", srv.URL, "status", "--json")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	var rows []fileStatus
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v, want 2", rows)
	}
	byPath := make(map[string]fileStatus)
	for _, r := range rows {
		byPath[r.Path] = r
	}
	if got := byPath["frame.sldprt"].State; got != "clean" {
		t.Errorf("frame.sldprt state = %q, want clean", got)
	}
	if got := byPath["rotors/rotor.sldprt"].State; got != "missing" {
		t.Errorf("rotor state = %q, want missing", got)
	}
}

func TestRunStatus_uninitializedDir(t *testing.T) {
	keyring.MockInit()
	srv := testutil.NewServer(t)
	dir := t.TempDir()

	_, err := execute(t, "--dir", dir, "--server", srv.URL, "status")
	if err == nil {
		t.Fatal("expected error for uninitialized directory")
	}
}
