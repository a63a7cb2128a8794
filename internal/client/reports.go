package client

import (
	"context"
	"encoding/json"
)

func (c *Client) DailyReport(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, nil, "reports", "daily")
}

func (c *Client) WeeklyReport(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, nil, "reports", "weekly")
}

func (c *Client) MonthlyReport(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, nil, "reports", "monthly")
}

// Report fetches the daily, weekly or monthly report by name.
func (c *Client) Report(ctx context.Context, period string) (json.RawMessage, error) {
	return c.get(ctx, nil, "reports", period)
}
