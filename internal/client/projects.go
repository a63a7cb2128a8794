package client

import (
	"context"
	"encoding/json"
	"net/url"
)

// ─── Organizations ───────────────────────────────────────────────────────

func (c *Client) ListOrganizations(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, nil, "organizations")
}

func (c *Client) GetOrganization(ctx context.Context, orgID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "organizations", id(orgID))
}

func (c *Client) CreateOrganization(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "organizations")
}

func (c *Client) UpdateOrganization(ctx context.Context, orgID int64, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "organizations", id(orgID))
}

func (c *Client) DeleteOrganization(ctx context.Context, orgID int64) error {
	return c.delete(ctx, nil, "organizations", id(orgID))
}

// ─── Projects ────────────────────────────────────────────────────────────

// ListProjects lists every project, or only orgID's when orgID is non-nil.
func (c *Client) ListProjects(ctx context.Context, orgID *int64) (json.RawMessage, error) {
	var q url.Values
	if orgID != nil {
		q = url.Values{"org_id": {id(*orgID)}}
	}
	return c.get(ctx, q, "projects")
}

func (c *Client) GetProject(ctx context.Context, projectID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "projects", id(projectID))
}

func (c *Client) CreateProject(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "projects")
}

func (c *Client) UpdateProject(ctx context.Context, projectID int64, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "projects", id(projectID))
}

func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	return c.delete(ctx, nil, "projects", id(projectID))
}

// ─── Sprints ─────────────────────────────────────────────────────────────

func (c *Client) ListSprints(ctx context.Context, projectID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "projects", id(projectID), "sprints")
}

func (c *Client) CreateSprint(ctx context.Context, projectID int64, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "projects", id(projectID), "sprints")
}

func (c *Client) UpdateSprint(ctx context.Context, sprintID int64, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "sprints", id(sprintID))
}

func (c *Client) ActivateSprint(ctx context.Context, sprintID int64) (json.RawMessage, error) {
	return c.post(ctx, nil, "sprints", id(sprintID), "activate")
}

func (c *Client) CompleteSprint(ctx context.Context, sprintID int64) (json.RawMessage, error) {
	return c.post(ctx, nil, "sprints", id(sprintID), "complete")
}

func (c *Client) DeleteSprint(ctx context.Context, sprintID int64) error {
	return c.delete(ctx, nil, "sprints", id(sprintID))
}

// ─── Retrospectives ──────────────────────────────────────────────────────

func (c *Client) GetRetrospective(ctx context.Context, sprintID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "sprints", id(sprintID), "retrospective")
}

func (c *Client) CreateRetrospective(ctx context.Context, sprintID int64, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "sprints", id(sprintID), "retrospective")
}

func (c *Client) UpdateRetrospective(ctx context.Context, sprintID int64, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "sprints", id(sprintID), "retrospective")
}

// ─── Project team members and roles ──────────────────────────────────────

func (c *Client) ListTeamMembers(ctx context.Context, projectID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "projects", id(projectID), "team_members")
}

func (c *Client) AddTeamMember(ctx context.Context, projectID int64, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "projects", id(projectID), "team_members")
}

func (c *Client) UpdateTeamMember(ctx context.Context, projectID, memberID int64, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "projects", id(projectID), "team_members", id(memberID))
}

func (c *Client) DeleteTeamMember(ctx context.Context, projectID, memberID int64) error {
	return c.delete(ctx, nil, "projects", id(projectID), "team_members", id(memberID))
}

func (c *Client) GetProjectRole(ctx context.Context, projectID, userID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "projects", id(projectID), "roles", id(userID))
}

func (c *Client) AssignRole(ctx context.Context, projectID int64, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "projects", id(projectID), "roles")
}

func (c *Client) UpdateRole(ctx context.Context, roleID int64, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "roles", id(roleID))
}
