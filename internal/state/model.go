package state

import (
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

// FileName is the state file kept at the root of a cloned project.
const FileName = ".grabcad.yaml"

// State represents the contents of .grabcad.yaml.
type State struct {
	Version      int                     `yaml:"version"`
	ToolVersion  string                  `yaml:"tool_version,omitempty"`
	GeneratedAt  string                  `yaml:"generated_at,omitempty"`
	Project      *workbench.Project      `yaml:"project,omitempty"`
	Organisation *workbench.Organisation `yaml:"organisation,omitempty"`
	Commits      []workbench.Commit      `yaml:"commits"`
}

// Initialized reports whether the state is bound to a project.
func (s *State) Initialized() bool {
	return s.Project != nil && s.Organisation != nil
}

// LastCommit returns the most recently applied commit, or nil if no pull has
// happened yet.
func (s *State) LastCommit() *workbench.Commit {
	if len(s.Commits) == 0 {
		return nil
	}
	return &s.Commits[len(s.Commits)-1]
}

// Diff splits commits into those only present locally and those only present
// in remote, compared by commit id.
func (s *State) Diff(remote []workbench.Commit) (localOnly, remoteOnly []workbench.Commit) {
	remoteIDs := make(map[int64]bool, len(remote))
	for _, c := range remote {
		remoteIDs[c.ID] = true
	}
	localIDs := make(map[int64]bool, len(s.Commits))
	for _, c := range s.Commits {
		localIDs[c.ID] = true
	}

	for _, c := range s.Commits {
		if !remoteIDs[c.ID] {
			localOnly = append(localOnly, c)
		}
	}
	for _, c := range remote {
		if !localIDs[c.ID] {
			remoteOnly = append(remoteOnly, c)
		}
	}
	return localOnly, remoteOnly
}
