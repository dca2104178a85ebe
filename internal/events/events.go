package events

import (
	"encoding/json"

	"github.com/rmarinn/slacksync/internal/store"
)

// envelope is the minimal decode of an inbound frame: just enough to pick
// a handler. Ack frames for self-sent messages carry no type at all, only
// ok/reply_to, so the discriminant is nullable.
type envelope struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	OK      *bool  `json:"ok"`
	ReplyTo *int64 `json:"reply_to"`
}

// ackEvent is the server acknowledgement of a locally sent message.
type ackEvent struct {
	OK      bool   `json:"ok"`
	ReplyTo int64  `json:"reply_to"`
	Ts      string `json:"ts"`
	Text    string `json:"text"`
}

// messageEvent covers the generic "message" type and its routed subtypes.
type messageEvent struct {
	Channel string `json:"channel"`
	User    string `json:"user"`
	BotID   string `json:"bot_id"`
	Text    string `json:"text"`
	Ts      string `json:"ts"`
	Subtype string `json:"subtype"`

	// message_changed nests the edit, message_deleted carries deleted_ts.
	Message   *store.Message `json:"message"`
	DeletedTs string         `json:"deleted_ts"`
}

type typingEvent struct {
	Channel string `json:"channel"`
	User    string `json:"user"`
}

type reactionEvent struct {
	User     string     `json:"user"`
	Reaction string     `json:"reaction"`
	Item     store.Item `json:"item"`
}

type channelEvent struct {
	// channel_created and channel_joined deliver a full channel object;
	// most others deliver just the id.
	Channel channelRef `json:"channel"`
	User    string     `json:"user"`
	Ts      string     `json:"ts"`
}

// channelRef decodes a "channel" field that is either a bare id string or
// a full channel object, depending on the event type.
type channelRef struct {
	ID  string
	Obj *store.Channel
}

func (r *channelRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var c store.Channel
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	r.Obj = &c
	r.ID = c.ID
	return nil
}

type channelMarkEvent struct {
	Channel string `json:"channel"`
	Ts      string `json:"ts"`
}

type channelRenameEvent struct {
	Channel struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"channel"`
}

type memberEvent struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
}

type presenceEvent struct {
	User     string `json:"user"`
	Presence string `json:"presence"`
}

type prefEvent struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type userEvent struct {
	User *store.User `json:"user"`
}

type botEvent struct {
	Bot *store.Bot `json:"bot"`
}

type subteamEvent struct {
	Subteam *store.UserGroup `json:"subteam"`
}

type teamRenameEvent struct {
	Name string `json:"name"`
}

type teamDomainEvent struct {
	Domain string `json:"domain"`
	URL    string `json:"url"`
}

type fileEvent struct {
	File *store.File `json:"file"`
	// file_deleted carries only the id.
	FileID string `json:"file_id"`
}

type fileCommentEvent struct {
	File    *store.File    `json:"file"`
	FileID  string         `json:"file_id"`
	Comment *store.Comment `json:"comment"`
}

type starEvent struct {
	User string     `json:"user"`
	Item store.Item `json:"item"`
}

type pinEvent struct {
	User      string     `json:"user"`
	ChannelID string     `json:"channel_id"`
	Item      store.Item `json:"item"`
}

type dndEvent struct {
	User      string           `json:"user"`
	DnDStatus *store.DnDStatus `json:"dnd_status"`
}

type pongEvent struct {
	ReplyTo int64 `json:"reply_to"`
}
