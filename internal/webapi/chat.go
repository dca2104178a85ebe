package webapi

import (
	"context"
	"net/url"
)

// PostMessageParams are the optional arguments to PostMessage. Zero-valued
// fields are omitted from the request.
type PostMessageParams struct {
	Username    string
	IconEmoji   string
	IconURL     string
	ThreadTs    string
	Parse       string
	LinkNames   bool
	UnfurlLinks bool
	AsUser      bool
}

// PostMessage posts a message through the Web API (as opposed to the
// persistent socket) and returns the server-assigned timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, text string, params PostMessageParams) (string, error) {
	v := url.Values{}
	v.Set("channel", channel)
	v.Set("text", text)
	setIf(v, "username", params.Username)
	setIf(v, "icon_emoji", params.IconEmoji)
	setIf(v, "icon_url", params.IconURL)
	setIf(v, "thread_ts", params.ThreadTs)
	setIf(v, "parse", params.Parse)
	setFlag(v, "link_names", params.LinkNames)
	setFlag(v, "unfurl_links", params.UnfurlLinks)
	setFlag(v, "as_user", params.AsUser)

	var out struct {
		Ts string `json:"ts"`
	}
	if err := c.call(ctx, "chat.postMessage", v, &out); err != nil {
		return "", err
	}
	return out.Ts, nil
}

// UpdateMessage edits an existing message and returns the (unchanged)
// timestamp of the edited message.
func (c *Client) UpdateMessage(ctx context.Context, channel, ts, text string) (string, error) {
	v := url.Values{}
	v.Set("channel", channel)
	v.Set("ts", ts)
	v.Set("text", text)

	var out struct {
		Ts string `json:"ts"`
	}
	if err := c.call(ctx, "chat.update", v, &out); err != nil {
		return "", err
	}
	return out.Ts, nil
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, channel, ts string) error {
	v := url.Values{}
	v.Set("channel", channel)
	v.Set("ts", ts)
	return c.call(ctx, "chat.delete", v, nil)
}
