package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// WorkItemFilter narrows ListWorkItems. Empty fields are not sent.
type WorkItemFilter struct {
	Type       string
	State      string
	AssignedTo string
	Sprint     string
	Search     string
}

func (f WorkItemFilter) query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("work_item_type", f.Type)
	set("state", f.State)
	set("assigned_to", f.AssignedTo)
	set("sprint", f.Sprint)
	set("search", f.Search)
	return q
}

func (c *Client) ListWorkItems(ctx context.Context, f WorkItemFilter) (json.RawMessage, error) {
	return c.get(ctx, f.query(), "workitems")
}

func (c *Client) CreateWorkItem(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.post(ctx, payload, "workitems")
}

func (c *Client) UpdateWorkItem(ctx context.Context, taskID string, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "workitems", taskID)
}

func (c *Client) DeleteWorkItem(ctx context.Context, taskID string) error {
	return c.delete(ctx, nil, "workitems", taskID)
}

// ListTasks is the legacy flat task list.
func (c *Client) ListTasks(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, nil, "tasks")
}

func (c *Client) GetTask(ctx context.Context, taskID string) (json.RawMessage, error) {
	return c.get(ctx, nil, "tasks", taskID)
}

func (c *Client) UpdateTaskStatus(ctx context.Context, taskID string, payload any) (json.RawMessage, error) {
	return c.patch(ctx, payload, "tasks", taskID)
}

// TaskUpdates returns the change history of one task.
func (c *Client) TaskUpdates(ctx context.Context, taskID string) (json.RawMessage, error) {
	return c.get(ctx, nil, "tasks", taskID, "updates")
}

// ExportTasksExcel streams the backend's spreadsheet export. The caller
// closes the returned reader.
func (c *Client) ExportTasksExcel(ctx context.Context) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(nil, "tasks", "export", "excel"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	resp, err := c.send(req)
	if err != nil {
		return nil, fmt.Errorf("export tasks: %w", err)
	}
	return resp.Body, nil
}
