package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

func TestParse_valid(t *testing.T) {
	data := []byte(`
version: 1
tool_version: dev
project:
  id: gcCa9bf
  name: Drone
  organisation:
    id: 42
    name: UAV Team
  root_folder_id: 7
organisation:
  id: 42
  name: UAV Team
commits:
  - id: 100
    message: initial upload
    author:
      id: 1
      name: alice
    created_at: 2024-03-01T12:00:00Z
    changes:
      - file:
          id: 10
          name: frame.sldprt
          path: Drone
          version: 1
        code: added
`)
	st, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Initialized() {
		t.Error("state should be initialized")
	}
	if st.Project.Name != "Drone" {
		t.Errorf("project name = %q, want Drone", st.Project.Name)
	}
	if len(st.Commits) != 1 || st.Commits[0].ID != 100 {
		t.Errorf("commits = %+v", st.Commits)
	}
	if st.Commits[0].Changes[0].Code != workbench.ChangeAdded {
		t.Errorf("change code = %q", st.Commits[0].Changes[0].Code)
	}
}

func TestParse_badVersion(t *testing.T) {
	_, err := Parse([]byte("version: 2\ncommits: []\n"))
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestParse_badYAML(t *testing.T) {
	_, err := Parse([]byte("{not yaml"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestSaveLoad_roundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	st := &State{
		Version:      1,
		Project:      &workbench.Project{ID: "p1", Name: "Drone", RootFolderID: 7},
		Organisation: &workbench.Organisation{ID: 42, Name: "UAV Team"},
		Commits: []workbench.Commit{{
			ID:        100,
			Message:   "first",
			Author:    workbench.User{ID: 1, Name: "alice"},
			CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		}},
	}
	if err := Save(path, st); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Project.ID != "p1" || got.Organisation.ID != 42 {
		t.Errorf("round trip lost project/org: %+v", got)
	}
	if !got.Commits[0].CreatedAt.Equal(st.Commits[0].CreatedAt) {
		t.Errorf("created_at = %v", got.Commits[0].CreatedAt)
	}
}

func TestOpen_missingDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestOpen_notInitialized(t *testing.T) {
	_, err := Open(t.TempDir())
	if err != ErrNotInitialized {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestCreate_refusesInitialized(t *testing.T) {
	dir := t.TempDir()
	st := &State{
		Version:      1,
		Project:      &workbench.Project{ID: "p1", Name: "Drone"},
		Organisation: &workbench.Organisation{ID: 42, Name: "UAV Team"},
	}
	if err := Save(filepath.Join(dir, FileName), st); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(dir); err == nil {
		t.Fatal("expected error for already initialized directory")
	}
}

func TestCreate_thenSave(t *testing.T) {
	dir := t.TempDir()
	r, err := Create(dir)
	if err != nil {
		t.Fatal(err)
	}
	r.State.Project = &workbench.Project{ID: "p1", Name: "Drone"}
	r.State.Organisation = &workbench.Organisation{ID: 42, Name: "UAV Team"}
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("state file not written: %v", err)
	}
}

func TestDiff(t *testing.T) {
	st := &State{Commits: []workbench.Commit{{ID: 1}, {ID: 2}}}
	remote := []workbench.Commit{{ID: 2}, {ID: 3}, {ID: 4}}

	localOnly, remoteOnly := st.Diff(remote)
	if len(localOnly) != 1 || localOnly[0].ID != 1 {
		t.Errorf("localOnly = %+v", localOnly)
	}
	if len(remoteOnly) != 2 || remoteOnly[0].ID != 3 || remoteOnly[1].ID != 4 {
		t.Errorf("remoteOnly = %+v", remoteOnly)
	}
}

func TestLastCommit(t *testing.T) {
	st := &State{}
	if st.LastCommit() != nil {
		t.Error("empty state should have no last commit")
	}
	st.Commits = []workbench.Commit{{ID: 1}, {ID: 2}}
	if lc := st.LastCommit(); lc == nil || lc.ID != 2 {
		t.Errorf("last commit = %+v", lc)
	}
}
