package api

import (
	"context"
	"fmt"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

type directoryEntry struct {
	Name string `json:"name"`
}

type fileData struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Version       int              `json:"version"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DirectoryPath []directoryEntry `json:"directory_path"`
	Versions      []struct {
		VersionNumber int    `json:"version_number"`
		URL           string `json:"url"`
	} `json:"versions"`
}

type folderData struct {
	Node struct {
		ID            int64            `json:"id"`
		Label         string           `json:"label"`
		UpdatedAt     time.Time        `json:"updated_at"`
		DirectoryPath []directoryEntry `json:"directory_path"`
		Children      []struct {
			ID       int64  `json:"id"`
			FileType string `json:"filetype"`
		} `json:"children"`
	} `json:"node"`
}

// FileInfo fetches full metadata for a file, including per-version download
// URLs.
func (c *Client) FileInfo(ctx context.Context, fileID int64) (workbench.File, error) {
	p, err := c.activeProject(nil)
	if err != nil {
		return workbench.File{}, err
	}

	var data fileData
	reqPath := fmt.Sprintf("/workbench/projects/%s/files/%d", p.ID, fileID)
	if err := c.getJSON(ctx, reqPath, nil, &data); err != nil {
		return workbench.File{}, fmt.Errorf("fetching file %d: %w", fileID, err)
	}

	urls := make(map[int]string, len(data.Versions))
	for _, v := range data.Versions {
		urls[v.VersionNumber] = v.URL
	}
	return workbench.File{
		FileRef: workbench.FileRef{
			ID:        data.ID,
			Name:      data.Name,
			Path:      joinDirectoryPath(data.DirectoryPath),
			Version:   data.Version,
			UpdatedAt: data.UpdatedAt,
		},
		VersionURLs: urls,
	}, nil
}

// FolderInfo fetches metadata for a folder and the identities of its children.
func (c *Client) FolderInfo(ctx context.Context, folderID int64) (workbench.Folder, []workbench.TreeNode, error) {
	p, err := c.activeProject(nil)
	if err != nil {
		return workbench.Folder{}, nil, err
	}

	var data folderData
	reqPath := fmt.Sprintf("/workbench/projects/%s/folders/%d", p.ID, folderID)
	if err := c.getJSON(ctx, reqPath, nil, &data); err != nil {
		return workbench.Folder{}, nil, fmt.Errorf("fetching folder %d: %w", folderID, err)
	}

	folder := workbench.Folder{
		ID:        data.Node.ID,
		Name:      data.Node.Label,
		Path:      joinDirectoryPath(data.Node.DirectoryPath),
		UpdatedAt: data.Node.UpdatedAt,
	}
	nodes := make([]workbench.TreeNode, 0, len(data.Node.Children))
	for _, child := range data.Node.Children {
		nodes = append(nodes, workbench.TreeNode{ID: child.ID, Type: child.FileType})
	}
	return folder, nodes, nil
}

// ProjectTree fetches the whole file tree of the default project, walking it
// breadth-first with one parallel fetch round per level.
func (c *Client) ProjectTree(ctx context.Context) (*workbench.Folder, error) {
	p, err := c.activeProject(nil)
	if err != nil {
		return nil, err
	}

	root, children, err := c.FolderInfo(ctx, p.RootFolderID)
	if err != nil {
		return nil, err
	}

	type pending struct {
		parent *workbench.Folder
		node   workbench.TreeNode
	}
	type fetched struct {
		folder workbench.Folder
		kids   []workbench.TreeNode
		file   workbench.File
	}

	level := make([]pending, 0, len(children))
	for _, n := range children {
		level = append(level, pending{parent: &root, node: n})
	}

	for len(level) > 0 {
		// Fetch the whole level in parallel, then attach results
		// sequentially: attaching grows parent slices, which would
		// invalidate pointers held by concurrent writers.
		results := make([]fetched, len(level))
		g, gctx := errgroup.WithContext(ctx)
		for i, item := range level {
			g.Go(func() error {
				if item.node.IsFolder() {
					folder, kids, err := c.FolderInfo(gctx, item.node.ID)
					if err != nil {
						return err
					}
					results[i] = fetched{folder: folder, kids: kids}
					return nil
				}
				file, err := c.FileInfo(gctx, item.node.ID)
				if err != nil {
					return err
				}
				results[i] = fetched{file: file}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var next []pending
		for i, item := range level {
			if !item.node.IsFolder() {
				item.parent.Files = append(item.parent.Files, results[i].file)
				continue
			}
			item.parent.Folders = append(item.parent.Folders, &results[i].folder)
			sub := item.parent.Folders[len(item.parent.Folders)-1]
			for _, k := range results[i].kids {
				next = append(next, pending{parent: sub, node: k})
			}
		}
		level = next
	}
	return &root, nil
}

func joinDirectoryPath(entries []directoryEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Name)
	}
	return path.Join(parts...)
}
