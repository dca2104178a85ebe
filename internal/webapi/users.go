package webapi

import (
	"context"
	"net/url"

	"github.com/rmarinn/slacksync/internal/store"
)

// ListUsers fetches all team members. Like every list call, the result is
// not merged into the mirror.
func (c *Client) ListUsers(ctx context.Context) ([]*store.User, error) {
	var out struct {
		Members []*store.User `json:"members"`
	}
	if err := c.call(ctx, "users.list", nil, &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

// GetPresence returns a user's presence string.
func (c *Client) GetPresence(ctx context.Context, userID string) (string, error) {
	v := url.Values{}
	v.Set("user", userID)

	var out struct {
		Presence string `json:"presence"`
	}
	if err := c.call(ctx, "users.getPresence", v, &out); err != nil {
		return "", err
	}
	return out.Presence, nil
}

// SetPresence sets the authenticated user's presence ("auto" or "away").
func (c *Client) SetPresence(ctx context.Context, presence string) error {
	v := url.Values{}
	v.Set("presence", presence)
	return c.call(ctx, "users.setPresence", v, nil)
}

// AuthTestResponse identifies the authenticated user and team.
type AuthTestResponse struct {
	URL    string `json:"url"`
	Team   string `json:"team"`
	User   string `json:"user"`
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
}

// AuthTest verifies the token and reports who it belongs to.
func (c *Client) AuthTest(ctx context.Context) (*AuthTestResponse, error) {
	var out AuthTestResponse
	if err := c.call(ctx, "auth.test", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DnDInfo returns a user's do-not-disturb status. An empty userID queries
// the authenticated user.
func (c *Client) DnDInfo(ctx context.Context, userID string) (*store.DnDStatus, error) {
	v := url.Values{}
	setIf(v, "user", userID)

	var out store.DnDStatus
	if err := c.call(ctx, "dnd.info", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
