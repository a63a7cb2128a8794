package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/karulmca/ScurmBoard/internal/scrumconfig"
)

func scopeQuery(scope scrumconfig.Scope) url.Values {
	if orgID, ok := scope.OrgID(); ok {
		return url.Values{"org_id": {id(orgID)}}
	}
	return nil
}

func decodeValues(raw json.RawMessage) (scrumconfig.Values, error) {
	values := scrumconfig.Values{}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return values, nil
}

// GetConfig returns the server-side effective config for scope.
func (c *Client) GetConfig(ctx context.Context, scope scrumconfig.Scope) (scrumconfig.Values, error) {
	raw, err := c.get(ctx, scopeQuery(scope), "config")
	if err != nil {
		return nil, err
	}
	return decodeValues(raw)
}

// GetConfigDefaults returns the server's system defaults without overrides.
func (c *Client) GetConfigDefaults(ctx context.Context) (scrumconfig.Values, error) {
	raw, err := c.get(ctx, nil, "config", "defaults")
	if err != nil {
		return nil, err
	}
	return decodeValues(raw)
}

type upsertConfigRequest struct {
	OrgID     *int64 `json:"org_id"`
	ConfigKey string `json:"config_key"`
	Value     any    `json:"value"`
}

// UpsertConfig creates or replaces scope's override of key.
func (c *Client) UpsertConfig(ctx context.Context, key string, value any, scope scrumconfig.Scope) error {
	_, err := c.post(ctx, upsertConfigRequest{
		OrgID:     scope.OrgIDPtr(),
		ConfigKey: key,
		Value:     value,
	}, "config")
	return err
}

// ResetConfig deletes scope's override of key.
func (c *Client) ResetConfig(ctx context.Context, key string, scope scrumconfig.Scope) error {
	return c.delete(ctx, scopeQuery(scope), "config", key)
}
