package events

import (
	"github.com/rmarinn/slacksync/internal/store"
	"go.uber.org/zap"
)

// MessagePayload is the bus payload for message.* notifications.
type MessagePayload struct {
	Channel string
	Ts      string
	User    string
	Text    string
}

func (r *Router) handleMessageReceived(raw []byte) {
	var evt messageEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel == "" || evt.Ts == "" {
		return
	}
	m := &store.Message{
		Channel: evt.Channel,
		User:    evt.User,
		BotID:   evt.BotID,
		Text:    evt.Text,
		Ts:      evt.Ts,
		Subtype: evt.Subtype,
	}
	if !r.store.AddMessage(m) {
		r.logger.Debug("message for unmirrored channel", zap.String("channel", evt.Channel))
		return
	}
	r.publish("message.received", MessagePayload{
		Channel: evt.Channel, Ts: evt.Ts, User: evt.User, Text: evt.Text,
	})
}

func (r *Router) handleMessageChanged(raw []byte) {
	var evt messageEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel == "" || evt.Message == nil || evt.Message.Ts == "" {
		return
	}
	if !r.store.UpdateMessageText(evt.Channel, evt.Message.Ts, evt.Message.Text) {
		return
	}
	r.publish("message.changed", MessagePayload{
		Channel: evt.Channel, Ts: evt.Message.Ts, User: evt.Message.User, Text: evt.Message.Text,
	})
}

func (r *Router) handleMessageDeleted(raw []byte) {
	var evt messageEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel == "" || evt.DeletedTs == "" {
		return
	}
	if !r.store.DeleteMessage(evt.Channel, evt.DeletedTs) {
		return
	}
	r.publish("message.deleted", MessagePayload{Channel: evt.Channel, Ts: evt.DeletedTs})
}

// handleAck reconciles the server acknowledgement of a self-sent message
// against the pending map. Acks with no matching pending entry are dropped.
func (r *Router) handleAck(raw []byte) {
	var evt ackEvent
	if !r.decode(raw, &evt) {
		return
	}
	if !evt.OK || evt.Ts == "" {
		return
	}
	m := r.store.PromotePending(evt.ReplyTo, evt.Ts, evt.Text)
	if m == nil {
		r.logger.Debug("ack with no pending entry", zap.Int64("reply_to", evt.ReplyTo))
		return
	}
	r.publish("message.sent", MessagePayload{
		Channel: m.Channel, Ts: m.Ts, User: m.User, Text: m.Text,
	})
}

// TypingPayload is the bus payload for typing.* notifications.
type TypingPayload struct {
	Channel string
	User    string
}

func (r *Router) handleUserTyping(raw []byte) {
	var evt typingEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel == "" || evt.User == "" {
		return
	}
	// Idempotent add: a duplicate typing event before expiry only resets
	// the expiration, it does not re-notify.
	if r.store.SetTyping(evt.Channel, evt.User) {
		r.publish("typing.started", TypingPayload{Channel: evt.Channel, User: evt.User})
	}
	r.typing.touch(evt.Channel, evt.User)
}
