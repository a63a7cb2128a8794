package client

import (
	"context"
	"encoding/json"
)

// ─── Users ───────────────────────────────────────────────────────────────

func (c *Client) ListUsers(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, nil, "users")
}

func (c *Client) GetUser(ctx context.Context, userID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "users", id(userID))
}

func (c *Client) CreateUser(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "users")
}

func (c *Client) UpdateUser(ctx context.Context, userID int64, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "users", id(userID))
}

func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	return c.delete(ctx, nil, "users", id(userID))
}

// ─── Teams ───────────────────────────────────────────────────────────────

func (c *Client) ListTeams(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, nil, "teams")
}

func (c *Client) GetTeam(ctx context.Context, teamID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "teams", id(teamID))
}

func (c *Client) CreateTeam(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "teams")
}

func (c *Client) UpdateTeam(ctx context.Context, teamID int64, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "teams", id(teamID))
}

func (c *Client) DeleteTeam(ctx context.Context, teamID int64) error {
	return c.delete(ctx, nil, "teams", id(teamID))
}

func (c *Client) ListTeamUsers(ctx context.Context, teamID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "teams", id(teamID), "members")
}

func (c *Client) AddUserToTeam(ctx context.Context, teamID int64, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "teams", id(teamID), "members")
}

func (c *Client) RemoveUserFromTeam(ctx context.Context, teamID, userID int64) error {
	return c.delete(ctx, nil, "teams", id(teamID), "members", id(userID))
}

// ─── Project ↔ team mapping ──────────────────────────────────────────────

func (c *Client) ListProjectTeams(ctx context.Context, projectID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "projects", id(projectID), "teams")
}

// AssignTeamToProject returns the backend's body, or nil if it sent none.
func (c *Client) AssignTeamToProject(ctx context.Context, projectID, teamID int64) (json.RawMessage, error) {
	return c.post(ctx, nil, "projects", id(projectID), "teams", id(teamID))
}

func (c *Client) UnassignTeamFromProject(ctx context.Context, projectID, teamID int64) error {
	return c.delete(ctx, nil, "projects", id(projectID), "teams", id(teamID))
}

// CheckProjectAccess reports the backend's access decision for one user.
func (c *Client) CheckProjectAccess(ctx context.Context, projectID, userID int64) (json.RawMessage, error) {
	return c.get(ctx, nil, "projects", id(projectID), "access", id(userID))
}
