// Package testutil provides a fake Workbench server for tests. It serves the
// login handshake, project metadata, the event feed, file downloads, and the
// upload protocol from in-memory fixtures, and records what it receives so
// tests can assert on forwarded values.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	// CSRFToken is embedded in the served login page.
	CSRFToken = "test-csrf-token"
	// XSRFCookie is the session cookie value set on the login page.
	XSRFCookie = "test-xsrf-cookie"
)

// FileFixture is a file known to the fake server.
type FileFixture struct {
	ID      int64
	Name    string
	Path    string
	Version int
	Content string
}

// ChangeFixture is one file change within a commit fixture.
type ChangeFixture struct {
	File    FileFixture
	Added   bool
	Updated bool
	Deleted bool
}

// CommitFixture is a snapshot event served through the event feed.
type CommitFixture struct {
	ID      int64
	Message string
	Time    int64 // unix seconds
	Author  string
	Changes []ChangeFixture
}

// Server is a fake Workbench backend.
type Server struct {
	*httptest.Server

	ProjectID    string
	ProjectName  string
	RootFolderID int64
	OrgID        int64
	OrgName      string

	mu          sync.Mutex
	commits     []CommitFixture
	files       map[int64]FileFixture
	folders     map[int64]string
	folderIDs   map[string]int64
	nextFolder  int64
	rejectLogin bool

	// Recorded requests, for forwarding assertions.
	LoginEmail    string
	LoginPassword string
	LoginCSRF     string
	Uploaded      map[string][]byte
	CommitMessage string
}

// NewServer starts a fake Workbench server with an empty project fixture.
// The server is shut down automatically when the test finishes.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		ProjectID:    "gcCa9bf",
		ProjectName:  "Drone",
		RootFolderID: 7,
		OrgID:        42,
		OrgName:      "UAV Team",
		files:        make(map[int64]FileFixture),
		folders:      make(map[int64]string),
		folderIDs:    make(map[string]int64),
		nextFolder:   100,
		Uploaded:     make(map[string][]byte),
	}
	s.folders[s.RootFolderID] = s.ProjectName
	s.folderIDs[s.ProjectName] = s.RootFolderID
	s.Server = httptest.NewServer(s.handler())
	t.Cleanup(s.Close)
	return s
}

// RejectLogin makes subsequent login attempts fail with 401.
func (s *Server) RejectLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectLogin = true
}

// AddCommit registers a commit and its files.
func (s *Server) AddCommit(c CommitFixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits = append(s.commits, c)
	for _, ch := range c.Changes {
		if !ch.Deleted {
			s.files[ch.File.ID] = ch.File
			s.ensureFolders(ch.File.Path)
		}
	}
}

// ensureFolders registers every directory prefix of a file path so the folder
// tree endpoint can serve it.
func (s *Server) ensureFolders(path string) {
	parts := strings.Split(path, "/")
	for i := range parts {
		prefix := strings.Join(parts[:i+1], "/")
		if _, ok := s.folderIDs[prefix]; ok {
			continue
		}
		s.nextFolder++
		s.folderIDs[prefix] = s.nextFolder
		s.folders[s.nextFolder] = prefix
	}
}

// ProjectURL returns a Workbench-style project URL pointing at this server.
func (s *Server) ProjectURL() string {
	return fmt.Sprintf("%s/workbench/projects/%s#/home", s.URL, s.ProjectID)
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /community/login", s.handleLogin)
	mux.HandleFunc("GET /workbench/projects/{id}/load_project_data", s.handleProjectData)
	mux.HandleFunc("GET /workbench/projects/{id}/collaborators", s.handleCollaborators)
	mux.HandleFunc("POST /accounts/{id}/account_members", s.handleAccountMembers)
	mux.HandleFunc("GET /workbench/projects/{id}/folders/{fid}", s.handleFolderInfo)
	mux.HandleFunc("GET /workbench/myprojects/{oid}/workbench_projects", s.handleOrgProjects)
	mux.HandleFunc("GET /workbench/projects/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /workbench/projects/{id}/events/{eid}", s.handleEventDetail)
	mux.HandleFunc("GET /workbench/projects/{id}/files/{fid}", s.handleFileInfo)
	mux.HandleFunc("GET /download/{fid}/{version}", s.handleDownload)
	mux.HandleFunc("POST /workbench/projects/{id}/uploads/create_upload_session", s.handleUploadSession)
	mux.HandleFunc("POST /workbench/projects/{id}/check_file_name", s.handleCheckFileName)
	mux.HandleFunc("POST /workbench/projects/{id}/uploads/file_upload_data", s.handleFileUploadData)
	mux.HandleFunc("POST /upload/{name}", s.handleUploadContent)
	mux.HandleFunc("POST /workbench/projects/{id}/confirm_upload_files", s.handleConfirmUpload)

	return mux
}

func (s *Server) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: XSRFCookie, Path: "/"})
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w,
		`<html><head><meta name="csrf-token" content=%q/></head><body></body></html>`,
		CSRFToken)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Member struct {
			Email             string `json:"email"`
			Password          string `json:"password"`
			AuthenticityToken string `json:"authenticity_token"`
		} `json:"member"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.LoginEmail = body.Member.Email
	s.LoginPassword = body.Member.Password
	s.LoginCSRF = body.Member.AuthenticityToken
	reject := s.rejectLogin
	s.mu.Unlock()

	if reject {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]any{"status": "ok"})
}

func (s *Server) handleProjectData(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") != s.ProjectID {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{
		"id":             s.ProjectID,
		"name":           s.ProjectName,
		"description":    "test project",
		"updated_at":     time.Unix(1000, 0).UTC().Format(time.RFC3339),
		"root_folder_id": s.RootFolderID,
		"account": map[string]any{
			"id":   s.OrgID,
			"name": s.OrgName,
		},
	})
}

func (s *Server) handleCollaborators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"collaborators": []map[string]any{
			{"id": 1, "name": "alice", "email": "alice@example.com", "role_id": 1},
			{"id": 2, "name": "bob", "email": "bob@example.com", "role_id": 2},
		},
	})
}

func (s *Server) handleAccountMembers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"visible_account_members": []map[string]any{
			{"id": 1, "name": "alice", "email": "alice@example.com", "role": 2, "admin": true},
			{"id": 2, "name": "bob", "email": "bob@example.com", "role": 2, "admin": false},
		},
	})
}

// handleEvents serves the whole feed newest-first on the first page and an
// empty second page, which is enough for the client's pagination loop.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("until") {
		writeJSON(w, []any{})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	headers := make([]map[string]any, 0, len(s.commits))
	for i := len(s.commits) - 1; i >= 0; i-- {
		headers = append(headers, map[string]any{
			"id":   s.commits[i].ID,
			"type": "snapshot_created",
		})
	}
	writeJSON(w, headers)
}

func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("eid"), 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commits {
		if c.ID != id {
			continue
		}
		changes := make([]map[string]any, 0, len(c.Changes))
		for _, ch := range c.Changes {
			changes = append(changes, map[string]any{
				"id":      ch.File.ID,
				"name":    ch.File.Name,
				"path":    ch.File.Path,
				"version": ch.File.Version,
				"added":   ch.Added,
				"updated": ch.Updated,
				"moved":   false,
				"renamed": false,
				"deleted": ch.Deleted,
			})
		}
		writeJSON(w, map[string]any{
			"id":         c.ID,
			"message":    c.Message,
			"exact_time": c.Time,
			"author":     map[string]any{"id": 1, "name": c.Author},
			"snapshot": map[string]any{
				"name":    fmt.Sprintf("snapshot-%d", c.ID),
				"changes": changes,
			},
		})
		return
	}
	http.NotFound(w, r)
}

func (s *Server) handleFolderInfo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("fid"), 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	folderPath, ok := s.folders[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	children := make([]map[string]any, 0)
	for sub, subID := range s.folderIDs {
		if parentPath(sub) == folderPath {
			children = append(children, map[string]any{"id": subID, "filetype": "folder"})
		}
	}
	for _, f := range s.files {
		if f.Path == folderPath {
			children = append(children, map[string]any{"id": f.ID, "filetype": "file"})
		}
	}

	dirs := make([]map[string]any, 0)
	for _, part := range strings.Split(folderPath, "/") {
		dirs = append(dirs, map[string]any{"name": part})
	}
	parts := strings.Split(folderPath, "/")
	writeJSON(w, map[string]any{
		"node": map[string]any{
			"id":             id,
			"label":          parts[len(parts)-1],
			"updated_at":     time.Unix(1000, 0).UTC().Format(time.RFC3339),
			"directory_path": dirs,
			"children":       children,
		},
	})
}

func parentPath(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

func (s *Server) handleOrgProjects(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("oid") != strconv.FormatInt(s.OrgID, 10) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{
		"projects": []map[string]any{{
			"id":             s.ProjectID,
			"name":           s.ProjectName,
			"description":    "test project",
			"updated_at":     time.Unix(1000, 0).UTC().Format(time.RFC3339),
			"root_folder_id": s.RootFolderID,
		}},
	})
}

func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("fid"), 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	f, ok := s.files[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	dirs := make([]map[string]any, 0)
	for _, part := range strings.Split(f.Path, "/") {
		if part != "" {
			dirs = append(dirs, map[string]any{"name": part})
		}
	}
	versions := make([]map[string]any, 0, f.Version)
	for v := 1; v <= f.Version; v++ {
		versions = append(versions, map[string]any{
			"version_number": v,
			"url":            fmt.Sprintf("%s/download/%d/%d", s.URL, f.ID, v),
		})
	}
	writeJSON(w, map[string]any{
		"id":             f.ID,
		"name":           f.Name,
		"version":        f.Version,
		"updated_at":     time.Unix(1000, 0).UTC().Format(time.RFC3339),
		"directory_path": dirs,
		"versions":       versions,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("fid"), 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	f, ok := s.files[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(f.Content))
}

func (s *Server) handleUploadSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"upload_session_id": "session-1"})
}

func (s *Server) handleCheckFileName(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Files []struct {
			FileName string `json:"file_name"`
		} `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	checks := make([]map[string]any, 0, len(body.Files))
	for range body.Files {
		checks = append(checks, map[string]any{
			"exists":        false,
			"has_access":    true,
			"can_overwrite": true,
			"lock":          map[string]any{"locked": false},
		})
	}
	writeJSON(w, checks)
}

func (s *Server) handleFileUploadData(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FileFileName string `json:"file_file_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"url": fmt.Sprintf("%s/upload/%s", s.URL, body.FileFileName),
	})
}

func (s *Server) handleUploadContent(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.Uploaded[r.PathValue("name")] = data
	s.mu.Unlock()
	writeJSON(w, map[string]any{})
}

func (s *Server) handleConfirmUpload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.CommitMessage = body.Description
	s.mu.Unlock()
	writeJSON(w, map[string]any{})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
