package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

// Download fetches the latest version of each file and writes it under root,
// in parallel. Parent directories are created as needed.
func (c *Client) Download(ctx context.Context, files []workbench.File, root string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			return c.downloadFile(gctx, f, root)
		})
	}
	return g.Wait()
}

func (c *Client) downloadFile(ctx context.Context, f workbench.File, root string) error {
	link := f.DownloadURL()
	if link == "" {
		return fmt.Errorf("file %s has no download url for version %d", f.Name, f.Version)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", f.Name, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", f.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %d", f.Name, resp.StatusCode)
	}

	dest := filepath.Join(root, filepath.FromSlash(f.RelPath()))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil { //nolint:gosec // project tree must be user-accessible
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}
	out, err := os.Create(dest) //nolint:gosec // dest is derived from the project tree
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return out.Close()
}

// Upload pushes the given local files as a new commit. The Workbench upload
// protocol is multi-phase: create an upload session, check file names, fetch
// per-file upload data, upload the content, then confirm the batch with the
// commit message.
func (c *Client) Upload(ctx context.Context, files []workbench.File, root, message string) error {
	p, err := c.activeProject(nil)
	if err != nil {
		return err
	}

	sessionID, err := c.createUploadSession(ctx, p)
	if err != nil {
		return err
	}

	allowed, err := c.checkFileNames(ctx, p, files)
	if err != nil {
		return err
	}

	type upload struct {
		file workbench.File
		url  string
	}
	uploads := make([]upload, len(allowed))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range allowed {
		g.Go(func() error {
			u, err := c.fileUploadURL(gctx, p, sessionID, f)
			if err != nil {
				return err
			}
			uploads[i] = upload{file: f, url: u}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	g, gctx = errgroup.WithContext(ctx)
	for _, u := range uploads {
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(u.file.RelPath()))) //nolint:gosec // path from tracked file list
			if err != nil {
				return fmt.Errorf("reading %s: %w", u.file.Name, err)
			}
			return c.uploadContent(gctx, u.url, data)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return c.confirmUpload(ctx, p, sessionID, message, len(uploads))
}

func (c *Client) createUploadSession(ctx context.Context, p *workbench.Project) (string, error) {
	var resp struct {
		UploadSessionID string `json:"upload_session_id"`
	}
	path := fmt.Sprintf("/workbench/projects/%s/uploads/create_upload_session", p.ID)
	body := map[string]any{"folder_id": p.RootFolderID}
	if err := c.postJSON(ctx, path, nil, body, &resp); err != nil {
		return "", fmt.Errorf("creating upload session: %w", err)
	}
	return resp.UploadSessionID, nil
}

// checkFileNames asks the server which of the files may be pushed, and drops
// those that exist but are locked or not writable by the current user.
func (c *Client) checkFileNames(ctx context.Context, p *workbench.Project, files []workbench.File) ([]workbench.File, error) {
	type nameEntry struct {
		FileName     string `json:"file_name"`
		FolderID     int64  `json:"folder_id"`
		RelativePath string `json:"relative_path"`
	}
	entries := make([]nameEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, nameEntry{
			FileName:     f.Name,
			FolderID:     p.RootFolderID,
			RelativePath: f.Path,
		})
	}

	var checks []struct {
		Exists       bool `json:"exists"`
		HasAccess    bool `json:"has_access"`
		CanOverwrite bool `json:"can_overwrite"`
		Lock         struct {
			Locked bool `json:"locked"`
		} `json:"lock"`
	}
	path := fmt.Sprintf("/workbench/projects/%s/check_file_name", p.ID)
	if err := c.postJSON(ctx, path, nil, map[string]any{"files": entries}, &checks); err != nil {
		return nil, fmt.Errorf("checking file names: %w", err)
	}

	var allowed []workbench.File
	for i, f := range files {
		if i >= len(checks) {
			break
		}
		ck := checks[i]
		if !ck.Exists || ck.HasAccess && ck.CanOverwrite && !ck.Lock.Locked {
			allowed = append(allowed, f)
		}
	}
	return allowed, nil
}

func (c *Client) fileUploadURL(ctx context.Context, p *workbench.Project, sessionID string, f workbench.File) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	path := fmt.Sprintf("/workbench/projects/%s/uploads/file_upload_data", p.ID)
	body := map[string]any{
		"format":              "js",
		"batch_id":            sessionID,
		"folder_id":           p.RootFolderID,
		"file_type":           f.Ext(),
		"relative_path":       f.Path,
		"file_id":             "HTML_Upload_1",
		"file_file_name":      f.Name,
		"intelligent_tiering": true,
		"upload_method":       "html",
	}
	if err := c.postJSON(ctx, path, nil, body, &resp); err != nil {
		return "", fmt.Errorf("fetching upload url for %s: %w", f.Name, err)
	}
	return resp.URL, nil
}

func (c *Client) uploadContent(ctx context.Context, uploadURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("uploading content: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if token := c.xsrfToken(); token != "" {
		req.Header.Set("X-XSRF-TOKEN", token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("uploading content: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("uploading content: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) confirmUpload(ctx context.Context, p *workbench.Project, sessionID, message string, count int) error {
	path := fmt.Sprintf("/workbench/projects/%s/confirm_upload_files", p.ID)
	params := url.Values{"project_id": {p.ID}}
	body := map[string]any{
		"format":                    "js",
		"batch_id":                  sessionID,
		"description":               message,
		"unlock_files_after_upload": false,
		"notify_of_upload":          true,
		"s3_upload_count":           count,
		"error_count":               0,
	}
	if err := c.postJSON(ctx, path, params, body, nil); err != nil {
		return fmt.Errorf("confirming upload: %w", err)
	}
	return nil
}
