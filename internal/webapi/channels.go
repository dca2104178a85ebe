package webapi

import (
	"context"
	"net/url"

	"github.com/rmarinn/slacksync/internal/store"
)

// ListChannels fetches the team's channels. The result is returned to the
// caller and deliberately not merged into the mirror: only the handshake
// snapshot and live events mutate it.
func (c *Client) ListChannels(ctx context.Context, excludeArchived bool) ([]*store.Channel, error) {
	v := url.Values{}
	setFlag(v, "exclude_archived", excludeArchived)

	var out struct {
		Channels []*store.Channel `json:"channels"`
	}
	if err := c.call(ctx, "channels.list", v, &out); err != nil {
		return nil, err
	}
	return out.Channels, nil
}

// JoinChannel joins (creating if needed) the named channel.
func (c *Client) JoinChannel(ctx context.Context, name string) (*store.Channel, error) {
	v := url.Values{}
	v.Set("name", name)

	var out struct {
		Channel *store.Channel `json:"channel"`
	}
	if err := c.call(ctx, "channels.join", v, &out); err != nil {
		return nil, err
	}
	return out.Channel, nil
}

// LeaveChannel leaves a channel by id.
func (c *Client) LeaveChannel(ctx context.Context, channelID string) error {
	v := url.Values{}
	v.Set("channel", channelID)
	return c.call(ctx, "channels.leave", v, nil)
}

// MarkChannel moves the read cursor for a channel.
func (c *Client) MarkChannel(ctx context.Context, channelID, ts string) error {
	v := url.Values{}
	v.Set("channel", channelID)
	v.Set("ts", ts)
	return c.call(ctx, "channels.mark", v, nil)
}

// SetChannelTopic sets a channel topic and returns the applied value.
func (c *Client) SetChannelTopic(ctx context.Context, channelID, topic string) (string, error) {
	v := url.Values{}
	v.Set("channel", channelID)
	v.Set("topic", topic)

	var out struct {
		Topic string `json:"topic"`
	}
	if err := c.call(ctx, "channels.setTopic", v, &out); err != nil {
		return "", err
	}
	return out.Topic, nil
}

// SetChannelPurpose sets a channel purpose and returns the applied value.
func (c *Client) SetChannelPurpose(ctx context.Context, channelID, purpose string) (string, error) {
	v := url.Values{}
	v.Set("channel", channelID)
	v.Set("purpose", purpose)

	var out struct {
		Purpose string `json:"purpose"`
	}
	if err := c.call(ctx, "channels.setPurpose", v, &out); err != nil {
		return "", err
	}
	return out.Purpose, nil
}

// InviteToChannel invites a user into a channel.
func (c *Client) InviteToChannel(ctx context.Context, channelID, userID string) error {
	v := url.Values{}
	v.Set("channel", channelID)
	v.Set("user", userID)
	return c.call(ctx, "channels.invite", v, nil)
}

// OpenIM opens (or resumes) a direct message channel with a user and
// returns the channel id.
func (c *Client) OpenIM(ctx context.Context, userID string) (string, error) {
	v := url.Values{}
	v.Set("user", userID)

	var out struct {
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	if err := c.call(ctx, "im.open", v, &out); err != nil {
		return "", err
	}
	return out.Channel.ID, nil
}

// CloseIM closes a direct message channel.
func (c *Client) CloseIM(ctx context.Context, channelID string) error {
	v := url.Values{}
	v.Set("channel", channelID)
	return c.call(ctx, "im.close", v, nil)
}
