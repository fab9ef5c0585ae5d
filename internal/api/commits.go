package api

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

const snapshotEventType = "snapshot_created"

type eventHeader struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type eventDetail struct {
	ID        int64   `json:"id"`
	Message   string  `json:"message"`
	ExactTime float64 `json:"exact_time"`
	Author    struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"author"`
	Snapshot struct {
		Name    string               `json:"name"`
		Changes []snapshotChangeData `json:"changes"`
	} `json:"snapshot"`
}

type snapshotChangeData struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version int    `json:"version"`
	Added   bool   `json:"added"`
	Updated bool   `json:"updated"`
	Moved   bool   `json:"moved"`
	Renamed bool   `json:"renamed"`
	Deleted bool   `json:"deleted"`
}

// CommitsSince fetches all commits of the default project created at or after
// `since`, oldest first. The event feed is paginated newest-first with an
// `until` timestamp, so pages are fetched sequentially until the feed runs
// past `since`; event details within a page are fetched in parallel.
func (c *Client) CommitsSince(ctx context.Context, since time.Time) ([]workbench.Commit, error) {
	p, err := c.activeProject(nil)
	if err != nil {
		return nil, err
	}

	var commits []workbench.Commit
	oldest := math.Inf(1)
	for {
		params := url.Values{}
		if len(commits) > 0 {
			params.Set("until", strconv.FormatFloat(oldest, 'f', -1, 64))
		}

		var headers []eventHeader
		path := fmt.Sprintf("/workbench/projects/%s/events", p.ID)
		if err := c.getJSON(ctx, path, params, &headers); err != nil {
			return nil, fmt.Errorf("fetching event feed: %w", err)
		}

		page, err := c.fetchEvents(ctx, p.ID, headers)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		commits = append(commits, page...)
		oldest = float64(commits[len(commits)-1].CreatedAt.Unix())
		if oldest < float64(since.Unix()) {
			break
		}
	}

	// Pages come in fixed sizes, so the tail may predate `since`.
	filtered := commits[:0]
	for _, commit := range commits {
		if !commit.CreatedAt.Before(since) {
			filtered = append(filtered, commit)
		}
	}
	commits = filtered

	sort.Slice(commits, func(i, j int) bool {
		return commits[i].CreatedAt.Before(commits[j].CreatedAt)
	})
	return commits, nil
}

// fetchEvents expands snapshot event headers into full commits, in parallel.
// Non-snapshot events (comments, membership changes) are dropped.
func (c *Client) fetchEvents(ctx context.Context, projectID string, headers []eventHeader) ([]workbench.Commit, error) {
	var ids []int64
	for _, h := range headers {
		if h.Type == snapshotEventType {
			ids = append(ids, h.ID)
		}
	}

	commits := make([]workbench.Commit, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			var detail eventDetail
			path := fmt.Sprintf("/workbench/projects/%s/events/%d", projectID, id)
			if err := c.getJSON(ctx, path, nil, &detail); err != nil {
				return fmt.Errorf("fetching event %d: %w", id, err)
			}
			commits[i] = commitFromEvent(detail)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Preserve feed order (newest first).
	sort.Slice(commits, func(i, j int) bool {
		return commits[i].CreatedAt.After(commits[j].CreatedAt)
	})
	return commits, nil
}

func commitFromEvent(e eventDetail) workbench.Commit {
	createdAt := time.Unix(int64(e.ExactTime), 0).UTC()
	commit := workbench.Commit{
		ID:        e.ID,
		Name:      e.Snapshot.Name,
		Message:   e.Message,
		Author:    workbench.User{ID: e.Author.ID, Name: e.Author.Name},
		CreatedAt: createdAt,
	}
	for _, ch := range e.Snapshot.Changes {
		commit.Changes = append(commit.Changes, workbench.Change{
			File: workbench.FileRef{
				ID:        ch.ID,
				Name:      ch.Name,
				Path:      ch.Path,
				Version:   ch.Version,
				UpdatedAt: createdAt,
			},
			Code: changeCode(ch),
		})
	}
	return commit
}

func changeCode(ch snapshotChangeData) workbench.ChangeCode {
	switch {
	case ch.Deleted:
		return workbench.ChangeDeleted
	case ch.Added:
		return workbench.ChangeAdded
	default:
		// Updates, moves and renames all surface as a new version.
		return workbench.ChangeUpdated
	}
}
