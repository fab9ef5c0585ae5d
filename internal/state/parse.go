package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNotInitialized is returned by Open when the directory has no state file.
var ErrNotInitialized = errors.New(
	"directory is not a GrabCAD project: run `gcw init --url <project-url>` first")

// Repo ties a loaded state to the directory it lives in.
type Repo struct {
	Dir   string
	Path  string
	State *State
}

// Open resolves dir and loads its state file. The directory itself must
// exist; a missing state file yields ErrNotInitialized.
func Open(dir string) (*Repo, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving repository directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("repository directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path %s is not a directory", dir)
	}

	path := filepath.Join(dir, FileName)
	r := &Repo{Dir: dir, Path: path}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	st, err := Load(path)
	if err != nil {
		return nil, err
	}
	r.State = st
	return r, nil
}

// Create prepares a Repo for a directory that has no state file yet.
// It fails if the directory is missing or already initialized.
func Create(dir string) (*Repo, error) {
	r, err := Open(dir)
	if err == nil {
		return nil, fmt.Errorf("directory %s already has an initialized project %q", r.Dir, projectName(r.State))
	}
	if !errors.Is(err, ErrNotInitialized) {
		return nil, err
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving repository directory: %w", err)
	}
	return &Repo{
		Dir:   dir,
		Path:  filepath.Join(dir, FileName),
		State: &State{Version: 1},
	}, nil
}

// Save writes the repo's state back to disk.
func (r *Repo) Save() error {
	return Save(r.Path, r.State)
}

// Load reads a .grabcad.yaml file.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the repo state file path
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	return Parse(data)
}

// Parse parses .grabcad.yaml content.
func Parse(data []byte) (*State, error) {
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state YAML: %w", err)
	}
	if st.Version != 1 {
		return nil, fmt.Errorf("unsupported state file version: %d (expected 1)", st.Version)
	}
	return &st, nil
}

// Save writes the state file to disk.
func Save(path string, st *State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling state file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // state file needs to be readable
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

func projectName(st *State) string {
	if st != nil && st.Project != nil {
		return st.Project.Name
	}
	return ""
}
