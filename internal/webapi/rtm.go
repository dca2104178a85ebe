package webapi

import (
	"context"
	"net/url"

	"github.com/rmarinn/slacksync/internal/store"
)

// StartOptions are the handshake flags for a real-time session.
type StartOptions struct {
	// SimpleLatest skips unneeded older history in the snapshot.
	SimpleLatest bool
	// NoUnreads suppresses unread counts in the snapshot.
	NoUnreads bool
	// MPIMAware enables multi-party IM awareness.
	MPIMAware bool
}

// StartSession performs the session-start handshake and returns the full
// state snapshot, including the URL for the persistent socket.
func (c *Client) StartSession(ctx context.Context, opts StartOptions) (*store.Snapshot, error) {
	v := url.Values{}
	setFlag(v, "simple_latest", opts.SimpleLatest)
	setFlag(v, "no_unreads", opts.NoUnreads)
	setFlag(v, "mpim_aware", opts.MPIMAware)

	var snap store.Snapshot
	if err := c.call(ctx, "rtm.start", v, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
