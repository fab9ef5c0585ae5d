package fsync

import (
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

// LatestChanges resolves the final change per file across a range of commits:
// for each file id, the change with the highest version wins. The result is
// split into surviving changes and deletions.
func LatestChanges(commits []workbench.Commit) (changed, deleted []workbench.Change) {
	latest := make(map[int64]workbench.Change)
	var order []int64
	for _, commit := range commits {
		for _, ch := range commit.Changes {
			prev, seen := latest[ch.File.ID]
			if !seen {
				order = append(order, ch.File.ID)
				latest[ch.File.ID] = ch
				continue
			}
			if ch.File.Version >= prev.File.Version {
				latest[ch.File.ID] = ch
			}
		}
	}

	for _, id := range order {
		ch := latest[id]
		if ch.Code == workbench.ChangeDeleted {
			deleted = append(deleted, ch)
		} else {
			changed = append(changed, ch)
		}
	}
	return changed, deleted
}
