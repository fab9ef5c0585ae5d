package workbench

import "time"

// UserRole mirrors the Workbench collaborator role ids.
type UserRole int

const (
	RoleAdmin        UserRole = 1
	RoleCollaborator UserRole = 2
	RoleReadOnly     UserRole = 3
)

func (r UserRole) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleCollaborator:
		return "collaborator"
	case RoleReadOnly:
		return "read-only"
	default:
		return "unknown"
	}
}

// User is a Workbench account.
type User struct {
	ID    int64  `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email,omitempty"`
}

// Member is a user together with their role in a project or organisation.
type Member struct {
	User `yaml:",inline"`
	Role UserRole `yaml:"role"`
}

// Organisation is a Workbench account (company) that owns projects.
type Organisation struct {
	ID      int64    `yaml:"id"`
	Name    string   `yaml:"name"`
	Owner   *Member  `yaml:"owner,omitempty"`
	Members []Member `yaml:"members,omitempty"`
}

// Project is a Workbench project, the unit that gets cloned and pulled.
type Project struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description,omitempty"`
	Org          Organisation `yaml:"organisation"`
	RootFolderID int64        `yaml:"root_folder_id"`
	UpdatedAt    time.Time    `yaml:"updated_at"`
	Members      []Member     `yaml:"members,omitempty"`
}

// ChangeCode classifies a file change within a commit.
type ChangeCode string

const (
	ChangeAdded   ChangeCode = "added"
	ChangeUpdated ChangeCode = "updated"
	ChangeDeleted ChangeCode = "deleted"
)

// Change is a single file change inside a commit. Digest records the md5 of
// the file content as written to disk after a pull; it is empty for changes
// that were never materialized locally (deletions, skipped files).
type Change struct {
	File   FileRef    `yaml:"file"`
	Code   ChangeCode `yaml:"code"`
	Digest string     `yaml:"digest,omitempty"`
}

// Commit is a Workbench snapshot event.
type Commit struct {
	ID        int64     `yaml:"id"`
	Name      string    `yaml:"name,omitempty"`
	Message   string    `yaml:"message,omitempty"`
	Author    User      `yaml:"author"`
	CreatedAt time.Time `yaml:"created_at"`
	Changes   []Change  `yaml:"changes"`
}
