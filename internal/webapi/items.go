package webapi

import (
	"context"
	"net/url"

	"github.com/rmarinn/slacksync/internal/store"
)

// itemValues encodes an item target (message, file, or file comment) into
// the shared channel/timestamp/file/file_comment parameters.
func itemValues(item store.Item) url.Values {
	v := url.Values{}
	setIf(v, "channel", item.ChannelID)
	setIf(v, "timestamp", item.Ts)
	setIf(v, "file", item.FileID)
	setIf(v, "file_comment", item.CommentID)
	return v
}

// AddReaction adds an emoji reaction to an item.
func (c *Client) AddReaction(ctx context.Context, name string, item store.Item) error {
	v := itemValues(item)
	v.Set("name", name)
	return c.call(ctx, "reactions.add", v, nil)
}

// RemoveReaction removes an emoji reaction from an item.
func (c *Client) RemoveReaction(ctx context.Context, name string, item store.Item) error {
	v := itemValues(item)
	v.Set("name", name)
	return c.call(ctx, "reactions.remove", v, nil)
}

// AddStar stars an item.
func (c *Client) AddStar(ctx context.Context, item store.Item) error {
	return c.call(ctx, "stars.add", itemValues(item), nil)
}

// RemoveStar unstars an item.
func (c *Client) RemoveStar(ctx context.Context, item store.Item) error {
	return c.call(ctx, "stars.remove", itemValues(item), nil)
}

// AddPin pins an item to a channel.
func (c *Client) AddPin(ctx context.Context, channelID string, item store.Item) error {
	v := itemValues(item)
	v.Set("channel", channelID)
	return c.call(ctx, "pins.add", v, nil)
}

// RemovePin unpins an item from a channel.
func (c *Client) RemovePin(ctx context.Context, channelID string, item store.Item) error {
	v := itemValues(item)
	v.Set("channel", channelID)
	return c.call(ctx, "pins.remove", v, nil)
}

// DeleteFile deletes a file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	v := url.Values{}
	v.Set("file", fileID)
	return c.call(ctx, "files.delete", v, nil)
}

// FileInfo fetches a file record by id.
func (c *Client) FileInfo(ctx context.Context, fileID string) (*store.File, error) {
	v := url.Values{}
	v.Set("file", fileID)

	var out struct {
		File *store.File `json:"file"`
	}
	if err := c.call(ctx, "files.info", v, &out); err != nil {
		return nil, err
	}
	return out.File, nil
}
