package workbench

import (
	"path"
	"strings"
	"time"
)

// FileRef is the short form of a file as it appears in commit changes and
// folder listings. Path is the Workbench directory path, which always starts
// with the project root folder name.
type FileRef struct {
	ID        int64     `yaml:"id"`
	Name      string    `yaml:"name"`
	Path      string    `yaml:"path"`
	Version   int       `yaml:"version"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// RelPath returns the path of the file relative to the project root, with the
// root folder component stripped. Separators are forward slashes regardless
// of platform; callers converting to filesystem paths use filepath.FromSlash.
func (f FileRef) RelPath() string {
	parts := splitPath(f.Path)
	if len(parts) > 0 {
		parts = parts[1:]
	}
	return path.Join(append(parts, f.Name)...)
}

// Ext returns the file extension without the leading dot.
func (f FileRef) Ext() string {
	return strings.TrimPrefix(path.Ext(f.Name), ".")
}

// File is the full form of a file, with a download URL per version.
type File struct {
	FileRef
	VersionURLs map[int]string
}

// DownloadURL returns the URL of the file's latest version.
func (f File) DownloadURL() string {
	return f.VersionURLs[f.Version]
}

// Folder is a directory node in the project tree.
type Folder struct {
	ID        int64
	Name      string
	Path      string
	UpdatedAt time.Time
	Files     []File
	Folders   []*Folder
}

// TreeNode identifies a child of a folder before its type-specific metadata
// has been fetched.
type TreeNode struct {
	ID   int64
	Type string
}

// IsFolder reports whether the node is a directory.
func (n TreeNode) IsFolder() bool { return n.Type == "folder" }

// splitPath splits a Workbench path on both separator kinds. The web API
// reports forward slashes but paths recorded by old desktop clients may use
// backslashes.
func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}
