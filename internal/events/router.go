package events

import (
	"encoding/json"

	"github.com/rmarinn/slacksync/internal/bus"
	"github.com/rmarinn/slacksync/internal/store"
	"go.uber.org/zap"
)

// Hooks are connection-level callbacks the supervisor registers on the
// router: events that concern the session rather than the mirror.
type Hooks struct {
	// Hello fires on the server's hello event, confirming the session.
	Hello func()
	// Pong fires when a liveness probe reply arrives.
	Pong func(replyTo int64)
	// Migration fires on team_migration_started; the supervisor reconnects.
	Migration func()
}

// Router decodes inbound frames and dispatches each to exactly one handler.
// Handlers validate required fields up front and no-op when any is absent;
// a malformed frame never fails the dispatch loop. Unknown types are
// ignored. Dispatch must be called from a single goroutine so that frames
// mutate the mirror strictly in arrival order.
type Router struct {
	store  *store.Store
	bus    *bus.Bus
	logger *zap.Logger
	typing *typingTracker
	hooks  Hooks
}

// NewRouter creates a router over the given mirror and fan-out bus.
func NewRouter(st *store.Store, b *bus.Bus, logger *zap.Logger) *Router {
	r := &Router{
		store:  st,
		bus:    b,
		logger: logger,
	}
	r.typing = newTypingTracker(st, b, typingExpiry)
	return r
}

// SetHooks registers the supervisor's connection-level callbacks.
func (r *Router) SetHooks(h Hooks) {
	r.hooks = h
}

// Close cancels all scheduled typing expirations.
func (r *Router) Close() {
	r.typing.stopAll()
}

// Dispatch routes one raw frame. It never returns an error: undecodable or
// partially-fielded frames are absorbed silently so a single corrupt frame
// cannot terminate the session.
func (r *Router) Dispatch(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Debug("undecodable frame", zap.Error(err))
		return
	}

	// Send acks carry no type, only ok/reply_to.
	if env.Type == "" {
		if env.ReplyTo != nil && env.OK != nil {
			r.handleAck(raw)
		}
		return
	}

	switch env.Type {
	case "hello":
		if r.hooks.Hello != nil {
			r.hooks.Hello()
		}
		r.publish("connection.hello", nil)
	case "pong":
		r.handlePong(raw)
	case "team_migration_started":
		r.publish("team.migration_started", nil)
		if r.hooks.Migration != nil {
			r.hooks.Migration()
		}

	case "message":
		switch env.Subtype {
		case "message_changed":
			r.handleMessageChanged(raw)
		case "message_deleted":
			r.handleMessageDeleted(raw)
		default:
			r.handleMessageReceived(raw)
		}
	case "user_typing":
		r.handleUserTyping(raw)

	case "reaction_added":
		r.handleReaction(raw, true)
	case "reaction_removed":
		r.handleReaction(raw, false)

	case "channel_created", "im_created":
		r.handleChannelCreated(raw)
	case "channel_joined", "group_joined":
		r.handleChannelJoined(raw)
	case "channel_left", "group_left":
		r.handleChannelLeft(raw)
	case "channel_deleted":
		r.handleChannelDeleted(raw)
	case "channel_rename", "group_rename":
		r.handleChannelRename(raw)
	case "channel_archive", "group_archive":
		r.handleChannelArchive(raw, true)
	case "channel_unarchive", "group_unarchive":
		r.handleChannelArchive(raw, false)
	case "channel_marked", "group_marked", "im_marked":
		r.handleChannelMarked(raw)
	case "im_open", "group_open":
		r.handleChannelOpen(raw, true)
	case "im_close", "group_close":
		r.handleChannelOpen(raw, false)
	case "member_joined_channel":
		r.handleMember(raw, true)
	case "member_left_channel":
		r.handleMember(raw, false)

	case "file_created", "file_shared", "file_change", "file_unshared":
		r.handleFileUpsert(raw)
	case "file_public":
		r.handleFilePublic(raw)
	case "file_deleted":
		r.handleFileDeleted(raw)
	case "file_comment_added", "file_comment_edited":
		r.handleFileCommentAdded(raw)
	case "file_comment_deleted":
		r.handleFileCommentDeleted(raw)

	case "star_added":
		r.handleStar(raw, true)
	case "star_removed":
		r.handleStar(raw, false)
	case "pin_added":
		r.handlePin(raw, true)
	case "pin_removed":
		r.handlePin(raw, false)

	case "presence_change", "manual_presence_change":
		r.handlePresence(raw)
	case "pref_change":
		r.handlePrefChange(raw)
	case "user_change":
		r.handleUserChange(raw)
	case "team_join":
		r.handleTeamJoin(raw)
	case "team_rename":
		r.handleTeamRename(raw)
	case "team_domain_change":
		r.handleTeamDomainChange(raw)
	case "team_pref_change":
		r.handleTeamPrefChange(raw)
	case "bot_added", "bot_changed":
		r.handleBot(raw)
	case "subteam_created", "subteam_updated":
		r.handleSubteam(raw)
	case "dnd_updated", "dnd_updated_user":
		r.handleDnD(raw)

	default:
		// Unknown or unsupported event types are ignored without error.
		r.logger.Debug("ignoring event", zap.String("type", env.Type))
	}
}

func (r *Router) publish(kind string, payload any) {
	r.bus.Publish(bus.Event{Kind: kind, Payload: payload})
}

// decode unmarshals a frame into a typed event, reporting failures at
// debug level only.
func (r *Router) decode(raw []byte, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		r.logger.Debug("malformed event", zap.Error(err))
		return false
	}
	return true
}

func (r *Router) handlePong(raw []byte) {
	var evt pongEvent
	if !r.decode(raw, &evt) {
		return
	}
	if r.hooks.Pong != nil {
		r.hooks.Pong(evt.ReplyTo)
	}
}
