package api

import (
	"context"
	"fmt"
	"time"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

type projectData struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	UpdatedAt    time.Time `json:"updated_at"`
	RootFolderID int64     `json:"root_folder_id"`
	Account      struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"account"`
}

type collaboratorData struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID int    `json:"role_id"`
}

type accountMemberData struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  int    `json:"role"`
	Admin bool   `json:"admin"`
}

// ProjectInfo fetches full metadata for a project id, including its
// organisation and both member lists.
func (c *Client) ProjectInfo(ctx context.Context, projectID string) (*workbench.Project, error) {
	var data projectData
	path := fmt.Sprintf("/workbench/projects/%s/load_project_data", projectID)
	if err := c.getJSON(ctx, path, nil, &data); err != nil {
		return nil, fmt.Errorf("fetching project %s: %w", projectID, err)
	}

	org := workbench.Organisation{
		ID:   data.Account.ID,
		Name: data.Account.Name,
	}
	members, err := c.OrganisationMembers(ctx, &org)
	if err != nil {
		return nil, err
	}
	assignMembers(&org, members)

	project := &workbench.Project{
		ID:           data.ID,
		Name:         data.Name,
		Description:  data.Description,
		Org:          org,
		RootFolderID: data.RootFolderID,
		UpdatedAt:    data.UpdatedAt,
	}
	project.Members, err = c.ProjectMembers(ctx, project)
	if err != nil {
		return nil, err
	}
	return project, nil
}

// ProjectMembers lists the collaborators of a project. A nil project uses the
// client default.
func (c *Client) ProjectMembers(ctx context.Context, p *workbench.Project) ([]workbench.Member, error) {
	p, err := c.activeProject(p)
	if err != nil {
		return nil, err
	}

	var data struct {
		Collaborators []collaboratorData `json:"collaborators"`
	}
	path := fmt.Sprintf("/workbench/projects/%s/collaborators", p.ID)
	if err := c.getJSON(ctx, path, nil, &data); err != nil {
		return nil, fmt.Errorf("fetching collaborators of %s: %w", p.ID, err)
	}

	members := make([]workbench.Member, 0, len(data.Collaborators))
	for _, u := range data.Collaborators {
		members = append(members, workbench.Member{
			User: workbench.User{ID: u.ID, Name: u.Name, Email: u.Email},
			Role: workbench.UserRole(u.RoleID),
		})
	}
	return members, nil
}

// OrganisationMembers lists the members of an organisation. A nil org uses
// the client default.
func (c *Client) OrganisationMembers(ctx context.Context, o *workbench.Organisation) ([]workbench.Member, error) {
	o, err := c.activeOrganisation(o)
	if err != nil {
		return nil, err
	}

	var data struct {
		Members []accountMemberData `json:"visible_account_members"`
	}
	path := fmt.Sprintf("/accounts/%d/account_members", o.ID)
	if err := c.postJSON(ctx, path, nil, nil, &data); err != nil {
		return nil, fmt.Errorf("fetching members of organisation %d: %w", o.ID, err)
	}

	members := make([]workbench.Member, 0, len(data.Members))
	for _, u := range data.Members {
		role := workbench.UserRole(u.Role)
		if u.Admin {
			role = workbench.RoleAdmin
		}
		members = append(members, workbench.Member{
			User: workbench.User{ID: u.ID, Name: u.Name, Email: u.Email},
			Role: role,
		})
	}
	return members, nil
}

// OrganisationProjects lists the projects of an organisation. A nil org uses
// the client default.
func (c *Client) OrganisationProjects(ctx context.Context, o *workbench.Organisation) ([]workbench.Project, error) {
	o, err := c.activeOrganisation(o)
	if err != nil {
		return nil, err
	}

	var data struct {
		Projects []projectData `json:"projects"`
	}
	path := fmt.Sprintf("/workbench/myprojects/%d/workbench_projects", o.ID)
	if err := c.getJSON(ctx, path, nil, &data); err != nil {
		return nil, fmt.Errorf("fetching projects of organisation %d: %w", o.ID, err)
	}

	projects := make([]workbench.Project, 0, len(data.Projects))
	for _, p := range data.Projects {
		projects = append(projects, workbench.Project{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Org:          *o,
			RootFolderID: p.RootFolderID,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return projects, nil
}

// assignMembers splits a member list into the organisation owner and the
// remaining members.
func assignMembers(org *workbench.Organisation, members []workbench.Member) {
	for _, m := range members {
		if m.Role == workbench.RoleAdmin && org.Owner == nil {
			owner := m
			org.Owner = &owner
			continue
		}
		org.Members = append(org.Members, m)
	}
}
