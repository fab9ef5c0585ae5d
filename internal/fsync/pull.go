package fsync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/ui"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

// FileSource fetches full file metadata and downloads file content.
// Implemented by the api client.
type FileSource interface {
	FileInfo(ctx context.Context, fileID int64) (workbench.File, error)
	Download(ctx context.Context, files []workbench.File, root string) error
}

// Syncer applies remote commits to the local tree of a single repository.
// Output, when set, receives per-file progress during downloads; Quiet
// suppresses it.
type Syncer struct {
	Root   string
	Source FileSource
	State  *state.State
	Output io.Writer
	Quiet  bool
}

func (s *Syncer) progress(total int) *ui.Progress {
	out := s.Output
	quiet := s.Quiet
	if out == nil {
		out = io.Discard
		quiet = true
	}
	return ui.NewProgress(out, total, quiet)
}

// Report summarizes what a pull did.
type Report struct {
	Downloaded []string
	Removed    []string
	Skipped    []string
}

// Pull applies the given remote-only commits to the local tree. Files changed
// locally since the last pull are left untouched (and reported as skipped)
// unless force is set. Applied commits are appended to the state with the
// digests of the content actually written; a commit touching a skipped file
// is not recorded, so the next pull sees it again.
func (s *Syncer) Pull(ctx context.Context, commits []workbench.Commit, force bool) (*Report, error) {
	report := &Report{}

	changed, deleted := LatestChanges(commits)

	if err := s.removeFiles(deleted, report); err != nil {
		return nil, err
	}

	files, err := s.fetchFileInfo(ctx, changed)
	if err != nil {
		return nil, err
	}

	pulled := s.pulledDigests()
	skipped := make(map[string]bool)

	var toDownload []workbench.File
	for _, f := range files {
		rel := f.RelPath()
		if !force {
			localChange, err := s.hasLocalChange(rel, pulled)
			if err != nil {
				return nil, err
			}
			if localChange {
				report.Skipped = append(report.Skipped, rel)
				skipped[rel] = true
				continue
			}
		}
		toDownload = append(toDownload, f)
	}

	prog := s.progress(len(toDownload))
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range toDownload {
		g.Go(func() error {
			if err := s.Source.Download(gctx, []workbench.File{f}, s.Root); err != nil {
				return err
			}
			prog.Done(f.RelPath())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, f := range toDownload {
		report.Downloaded = append(report.Downloaded, f.RelPath())
	}

	if err := s.recordCommits(commits, skipped); err != nil {
		return nil, err
	}
	return report, nil
}

// removeFiles deletes files named by deletion changes. Workbench has no
// directory deletion events, so empty parent directories are cleaned up
// opportunistically.
func (s *Syncer) removeFiles(deleted []workbench.Change, report *Report) error {
	for _, ch := range deleted {
		rel := ch.File.RelPath()
		abs := filepath.Join(s.Root, filepath.FromSlash(rel))
		if err := os.Remove(abs); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("removing %s: %w", rel, err)
		}
		report.Removed = append(report.Removed, rel)
		// Only removes the directory if it is empty.
		_ = os.Remove(filepath.Dir(abs))
	}
	return nil
}

// fetchFileInfo expands change refs into full files (with download URLs),
// in parallel.
func (s *Syncer) fetchFileInfo(ctx context.Context, changes []workbench.Change) ([]workbench.File, error) {
	files := make([]workbench.File, len(changes))
	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range changes {
		g.Go(func() error {
			f, err := s.Source.FileInfo(gctx, ch.File.ID)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// pulledDigests maps relative path to the digest recorded at the last pull.
func (s *Syncer) pulledDigests() map[string]string {
	changed, _ := LatestChanges(s.State.Commits)
	digests := make(map[string]string, len(changed))
	for _, ch := range changed {
		digests[ch.File.RelPath()] = ch.Digest
	}
	return digests
}

// hasLocalChange reports whether the file at rel differs from what the last
// pull wrote. An untracked file sitting where a remote file would land also
// counts as a local change.
func (s *Syncer) hasLocalChange(rel string, pulled map[string]string) (bool, error) {
	current, err := FileDigest(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil {
		return false, err
	}
	if current == "" {
		// Nothing on disk; downloading cannot clobber anything.
		return false, nil
	}
	recorded, tracked := pulled[rel]
	return !tracked || recorded != current, nil
}

// recordCommits appends the applied commits to the state, oldest first,
// stamping each change with the digest of the file as it now exists on disk.
// Commits touching a skipped file stay out of the log so they remain pending.
func (s *Syncer) recordCommits(commits []workbench.Commit, skipped map[string]bool) error {
	sort.Slice(commits, func(i, j int) bool {
		return commits[i].CreatedAt.Before(commits[j].CreatedAt)
	})
	for ci := range commits {
		pending := false
		for i := range commits[ci].Changes {
			ch := &commits[ci].Changes[i]
			if skipped[ch.File.RelPath()] {
				pending = true
				break
			}
			if ch.Code == workbench.ChangeDeleted {
				continue
			}
			digest, err := FileDigest(filepath.Join(s.Root, filepath.FromSlash(ch.File.RelPath())))
			if err != nil {
				return err
			}
			ch.Digest = digest
		}
		if pending {
			continue
		}
		s.State.Commits = append(s.State.Commits, commits[ci])
	}
	return nil
}

// Status describes a tracked file's relation to the last pulled content.
type Status string

const (
	StatusClean    Status = "clean"
	StatusModified Status = "modified"
	StatusMissing  Status = "missing"
)

// FileStatus pairs a tracked file with its local status.
type FileStatus struct {
	File   workbench.FileRef
	Status Status
}

// LocalStatus compares every tracked file against the digests recorded at the
// last pull, sorted by relative path.
func (s *Syncer) LocalStatus() ([]FileStatus, error) {
	changed, _ := LatestChanges(s.State.Commits)

	statuses := make([]FileStatus, 0, len(changed))
	for _, ch := range changed {
		rel := ch.File.RelPath()
		current, err := FileDigest(filepath.Join(s.Root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}

		st := StatusClean
		switch {
		case current == "":
			st = StatusMissing
		case ch.Digest == "" || current != ch.Digest:
			st = StatusModified
		}
		statuses = append(statuses, FileStatus{File: ch.File, Status: st})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].File.RelPath() < statuses[j].File.RelPath()
	})
	return statuses, nil
}

// ModifiedFiles returns the tracked files whose content differs locally,
// the candidate set for a push.
func (s *Syncer) ModifiedFiles() ([]workbench.FileRef, error) {
	statuses, err := s.LocalStatus()
	if err != nil {
		return nil, err
	}
	var modified []workbench.FileRef
	for _, st := range statuses {
		if st.Status == StatusModified {
			modified = append(modified, st.File)
		}
	}
	return modified, nil
}
