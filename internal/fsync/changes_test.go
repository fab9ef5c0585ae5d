package fsync

import (
	"testing"
	"time"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

func change(fileID int64, name, path string, version int, code workbench.ChangeCode) workbench.Change {
	return workbench.Change{
		File: workbench.FileRef{ID: fileID, Name: name, Path: path, Version: version},
		Code: code,
	}
}

func TestLatestChanges_highestVersionWins(t *testing.T) {
	commits := []workbench.Commit{
		{ID: 1, Changes: []workbench.Change{
			change(10, "frame.sldprt", "Drone", 1, workbench.ChangeAdded),
		}},
		{ID: 2, Changes: []workbench.Change{
			change(10, "frame.sldprt", "Drone", 2, workbench.ChangeUpdated),
			change(11, "motor.step", "Drone/parts", 1, workbench.ChangeAdded),
		}},
	}

	changed, deleted := LatestChanges(commits)
	if len(deleted) != 0 {
		t.Errorf("deleted = %+v, want none", deleted)
	}
	if len(changed) != 2 {
		t.Fatalf("changed count = %d, want 2", len(changed))
	}
	if changed[0].File.ID != 10 || changed[0].File.Version != 2 {
		t.Errorf("changed[0] = %+v, want file 10 v2", changed[0])
	}
	if changed[1].File.ID != 11 {
		t.Errorf("changed[1] = %+v, want file 11", changed[1])
	}
}

func TestLatestChanges_deletionWins(t *testing.T) {
	commits := []workbench.Commit{
		{ID: 1, Changes: []workbench.Change{
			change(10, "frame.sldprt", "Drone", 1, workbench.ChangeAdded),
		}},
		{ID: 2, Changes: []workbench.Change{
			change(10, "frame.sldprt", "Drone", 2, workbench.ChangeDeleted),
		}},
	}

	changed, deleted := LatestChanges(commits)
	if len(changed) != 0 {
		t.Errorf("changed = %+v, want none", changed)
	}
	if len(deleted) != 1 || deleted[0].File.ID != 10 {
		t.Errorf("deleted = %+v, want file 10", deleted)
	}
}

func TestLatestChanges_empty(t *testing.T) {
	changed, deleted := LatestChanges(nil)
	if len(changed) != 0 || len(deleted) != 0 {
		t.Errorf("expected empty results, got %v / %v", changed, deleted)
	}
}

func TestLatestChanges_ignoresCommitOrder(t *testing.T) {
	// A re-add after deletion carries a higher version regardless of the
	// order commits are supplied in.
	commits := []workbench.Commit{
		{ID: 2, CreatedAt: time.Unix(200, 0), Changes: []workbench.Change{
			change(10, "frame.sldprt", "Drone", 3, workbench.ChangeAdded),
		}},
		{ID: 1, CreatedAt: time.Unix(100, 0), Changes: []workbench.Change{
			change(10, "frame.sldprt", "Drone", 2, workbench.ChangeDeleted),
		}},
	}
	changed, deleted := LatestChanges(commits)
	if len(changed) != 1 || changed[0].File.Version != 3 {
		t.Errorf("changed = %+v, want file 10 v3", changed)
	}
	if len(deleted) != 0 {
		t.Errorf("deleted = %+v, want none", deleted)
	}
}
