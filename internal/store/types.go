package store

// Team is the workspace the authenticated user belongs to.
type Team struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Domain string         `json:"domain"`
	Prefs  map[string]any `json:"prefs"`
}

// UserProfile holds the mutable profile fields of a user.
type UserProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RealName  string `json:"real_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Title     string `json:"title"`
}

// User is a member of the team.
type User struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	TeamID   string         `json:"team_id"`
	Color    string         `json:"color"`
	Profile  UserProfile    `json:"profile"`
	IsAdmin  bool           `json:"is_admin"`
	IsOwner  bool           `json:"is_owner"`
	IsBot    bool           `json:"is_bot"`
	Deleted  bool           `json:"deleted"`
	Presence string         `json:"presence"`
	Prefs    map[string]any `json:"prefs,omitempty"`
	DnD      *DnDStatus     `json:"dnd,omitempty"`
}

// DnDStatus is a user's do-not-disturb window.
type DnDStatus struct {
	Enabled            bool  `json:"dnd_enabled"`
	NextStartTs        int64 `json:"next_dnd_start_ts"`
	NextEndTs          int64 `json:"next_dnd_end_ts"`
	SnoozeEnabled      bool  `json:"snooze_enabled"`
	SnoozeEndTime      int64 `json:"snooze_endtime"`
	SnoozeRemaining    int64 `json:"snooze_remaining"`
	NotificationPaused bool  `json:"-"`
}

// Bot is a bot integration installed on the team.
type Bot struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	AppID   string            `json:"app_id"`
	Deleted bool              `json:"deleted"`
	Icons   map[string]string `json:"icons"`
}

// UserGroup is a named group of users (a subteam).
type UserGroup struct {
	ID          string   `json:"id"`
	TeamID      string   `json:"team_id"`
	Name        string   `json:"name"`
	Handle      string   `json:"handle"`
	Description string   `json:"description"`
	UserCount   int      `json:"user_count"`
	Users       []string `json:"users"`
	DeletedBy   string   `json:"deleted_by"`
}

// Property is a named channel attribute such as the topic or purpose.
type Property struct {
	Value   string `json:"value"`
	Creator string `json:"creator"`
	LastSet int64  `json:"last_set"`
}

// Channel is a public channel, private group, IM, or MPIM. Runtime state
// (messages, typing users, pins) lives alongside the wire fields and is
// populated only by the event stream.
type Channel struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Created    int64    `json:"created"`
	Creator    string   `json:"creator"`
	IsChannel  bool     `json:"is_channel"`
	IsGroup    bool     `json:"is_group"`
	IsIM       bool     `json:"is_im"`
	IsMPIM     bool     `json:"is_mpim"`
	IsGeneral  bool     `json:"is_general"`
	IsArchived bool     `json:"is_archived"`
	IsMember   bool     `json:"is_member"`
	IsOpen     bool     `json:"is_open"`
	UserID     string   `json:"user"` // IM peer
	Members    []string `json:"members"`
	Topic      Property `json:"topic"`
	Purpose    Property `json:"purpose"`
	LastRead   string   `json:"last_read"`

	// Messages is keyed by server timestamp. Timestamps are fixed-point
	// decimal strings whose lexical order within a channel equals arrival
	// order, so the map doubles as an ordered history index.
	Messages map[string]*Message `json:"-"`
	// Typing is the set of user ids currently typing in this channel.
	Typing map[string]bool `json:"-"`
	Pins   []Item          `json:"-"`
}

// Message is a single channel message. Reactions are keyed by emoji name.
type Message struct {
	Channel   string               `json:"channel"`
	User      string               `json:"user"` // empty for system messages
	BotID     string               `json:"bot_id,omitempty"`
	Text      string               `json:"text"`
	Ts        string               `json:"ts"`
	ThreadTs  string               `json:"thread_ts,omitempty"`
	Subtype   string               `json:"subtype,omitempty"`
	Reactions map[string]*Reaction `json:"-"`
	IsStarred bool                 `json:"is_starred,omitempty"`
}

// Reaction is one emoji reaction and the set of users who added it. The
// entry is removed from its parent entirely once Users is empty.
type Reaction struct {
	Name  string          `json:"name"`
	Users map[string]bool `json:"-"`
}

// Count returns the number of users behind the reaction.
func (r *Reaction) Count() int { return len(r.Users) }

// Comment is a comment attached to a file, keyed by id.
type Comment struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user"`
	Comment   string               `json:"comment"`
	Created   int64                `json:"created"`
	Reactions map[string]*Reaction `json:"-"`
}

// File is an uploaded file.
type File struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Title     string               `json:"title"`
	UserID    string               `json:"user"`
	IsPublic  bool                 `json:"is_public"`
	IsStarred bool                 `json:"is_starred"`
	NumStars  int                  `json:"num_stars"`
	Comments  map[string]*Comment  `json:"-"`
	Reactions map[string]*Reaction `json:"-"`
}

// Item identifies the target of a pin, star, or reaction: a message, a
// file, or a file comment.
type Item struct {
	Type      string `json:"type"` // "message", "file", "file_comment"
	ChannelID string `json:"channel,omitempty"`
	Ts        string `json:"ts,omitempty"`
	FileID    string `json:"file,omitempty"`
	CommentID string `json:"file_comment,omitempty"`
}
