package store

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by read-view lookups that miss the mirror.
var ErrNotFound = errors.New("not found in mirror")

// Store is the in-memory mirror of remote state. It is owned by a single
// client instance and mutated only through its methods: bulk-loaded from the
// handshake snapshot, then kept current by the event stream. Its contents
// are discarded wholesale on reconnect.
//
// Values returned by read-view methods are shared with the mirror and must
// be treated as read-only by callers.
type Store struct {
	mu sync.RWMutex

	team     *Team
	self     *User
	users    map[string]*User
	channels map[string]*Channel
	files    map[string]*File
	bots     map[string]*Bot
	groups   map[string]*UserGroup

	// pending holds locally sent messages awaiting the server ack, keyed
	// by the client-generated correlation id.
	pending map[int64]*Message
}

// New creates an empty mirror.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.team = nil
	s.self = nil
	s.users = make(map[string]*User)
	s.channels = make(map[string]*Channel)
	s.files = make(map[string]*File)
	s.bots = make(map[string]*Bot)
	s.groups = make(map[string]*UserGroup)
	s.pending = make(map[int64]*Message)
}

// Reset discards the entire mirror. Called on disconnect; the next snapshot
// rebuilds state from scratch rather than merging.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// LoadSnapshot replaces the mirror with the contents of a handshake
// snapshot. The previous mirror is discarded, never merged.
func (s *Store) LoadSnapshot(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()

	if snap.Team != nil {
		s.team = snap.Team
	}
	if snap.Self != nil {
		s.self = snap.Self
	}
	for _, u := range snap.Users {
		s.users[u.ID] = u
	}
	for _, set := range [][]*Channel{snap.Channels, snap.Groups, snap.MPIMs, snap.IMs} {
		for _, c := range set {
			initChannel(c)
			s.channels[c.ID] = c
		}
	}
	for _, b := range snap.Bots {
		s.bots[b.ID] = b
	}
	for _, g := range snap.Subteams {
		s.groups[g.ID] = g
	}
}

func initChannel(c *Channel) {
	if c.Messages == nil {
		c.Messages = make(map[string]*Message)
	}
	if c.Typing == nil {
		c.Typing = make(map[string]bool)
	}
}

// Team returns the workspace, or nil before the first snapshot.
func (s *Store) Team() *Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.team
}

// Self returns the authenticated user, or nil when disconnected.
func (s *Store) Self() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self
}

// ClearSelf drops the authenticated-user reference. Called on disconnect.
func (s *Store) ClearSelf() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = nil
}

// User looks up a user by id.
func (s *Store) User(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	return u, nil
}

// UserByName looks up a user by name.
func (s *Store) UserByName(name string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user named %q: %w", name, ErrNotFound)
}

// Channel looks up a channel by id.
func (s *Store) Channel(id string) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[id]
	if !ok {
		return nil, fmt.Errorf("channel %q: %w", id, ErrNotFound)
	}
	return c, nil
}

// ChannelByName looks up a channel by name.
func (s *Store) ChannelByName(name string) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.channels {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("channel named %q: %w", name, ErrNotFound)
}

// File looks up a file by id.
func (s *Store) File(id string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %q: %w", id, ErrNotFound)
	}
	return f, nil
}

// Bot looks up a bot by id.
func (s *Store) Bot(id string) (*Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bots[id]
	if !ok {
		return nil, fmt.Errorf("bot %q: %w", id, ErrNotFound)
	}
	return b, nil
}

// UserGroup looks up a user group by id.
func (s *Store) UserGroup(id string) (*UserGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("usergroup %q: %w", id, ErrNotFound)
	}
	return g, nil
}

// Channels returns all mirrored channels.
func (s *Store) Channels() []*Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Channel, 0, len(s.channels))
	for _, c := range s.channels {
		out = append(out, c)
	}
	return out
}

// Users returns all mirrored users.
func (s *Store) Users() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

// UpsertUser inserts or replaces a user record.
func (s *Store) UpsertUser(u *User) {
	if u == nil || u.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.users[u.ID]; ok && u.Presence == "" {
		u.Presence = prev.Presence
	}
	s.users[u.ID] = u
	if s.self != nil && s.self.ID == u.ID {
		s.self = u
	}
}

// SetPresence updates a user's presence. Unknown users are ignored.
func (s *Store) SetPresence(userID, presence string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false
	}
	u.Presence = presence
	return true
}

// SetUserPref records a preference change for the authenticated user.
func (s *Store) SetUserPref(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.self == nil {
		return
	}
	if s.self.Prefs == nil {
		s.self.Prefs = make(map[string]any)
	}
	s.self.Prefs[name] = value
}

// SetDnD records a user's do-not-disturb status. Unknown users are ignored.
func (s *Store) SetDnD(userID string, dnd *DnDStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false
	}
	u.DnD = dnd
	return true
}

// UpsertChannel inserts or replaces a channel, preserving accumulated
// runtime state (messages, typing, pins) when the channel already exists.
func (s *Store) UpsertChannel(c *Channel) {
	if c == nil || c.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.channels[c.ID]; ok {
		c.Messages = prev.Messages
		c.Typing = prev.Typing
		c.Pins = prev.Pins
	}
	initChannel(c)
	s.channels[c.ID] = c
}

// RemoveChannel drops a channel from the mirror.
func (s *Store) RemoveChannel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.channels[id]; !ok {
		return false
	}
	delete(s.channels, id)
	return true
}

// Rename changes a channel's name.
func (s *Store) Rename(channelID, name string) bool {
	return s.mutateChannel(channelID, func(c *Channel) { c.Name = name })
}

// SetArchived flips a channel's archived flag.
func (s *Store) SetArchived(channelID string, archived bool) bool {
	return s.mutateChannel(channelID, func(c *Channel) { c.IsArchived = archived })
}

// SetOpen flips a channel's open flag.
func (s *Store) SetOpen(channelID string, open bool) bool {
	return s.mutateChannel(channelID, func(c *Channel) { c.IsOpen = open })
}

// SetMember flips the authenticated user's membership flag.
func (s *Store) SetMember(channelID string, member bool) bool {
	return s.mutateChannel(channelID, func(c *Channel) { c.IsMember = member })
}

// SetLastRead moves a channel's last-read marker.
func (s *Store) SetLastRead(channelID, ts string) bool {
	return s.mutateChannel(channelID, func(c *Channel) { c.LastRead = ts })
}

// SetTopic updates a channel's topic.
func (s *Store) SetTopic(channelID string, topic Property) bool {
	return s.mutateChannel(channelID, func(c *Channel) { c.Topic = topic })
}

// SetPurpose updates a channel's purpose.
func (s *Store) SetPurpose(channelID string, purpose Property) bool {
	return s.mutateChannel(channelID, func(c *Channel) { c.Purpose = purpose })
}

// AddMember adds a user to a channel's membership list.
func (s *Store) AddMember(channelID, userID string) bool {
	return s.mutateChannel(channelID, func(c *Channel) {
		for _, m := range c.Members {
			if m == userID {
				return
			}
		}
		c.Members = append(c.Members, userID)
	})
}

// RemoveMember removes a user from a channel's membership list.
func (s *Store) RemoveMember(channelID, userID string) bool {
	return s.mutateChannel(channelID, func(c *Channel) {
		for i, m := range c.Members {
			if m == userID {
				c.Members = append(c.Members[:i], c.Members[i+1:]...)
				return
			}
		}
	})
}

func (s *Store) mutateChannel(id string, fn func(*Channel)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[id]
	if !ok {
		return false
	}
	fn(c)
	return true
}

// AddMessage inserts a message into its channel's timestamp-keyed map.
func (s *Store) AddMessage(m *Message) bool {
	if m == nil || m.Channel == "" || m.Ts == "" {
		return false
	}
	return s.mutateChannel(m.Channel, func(c *Channel) {
		if m.Reactions == nil {
			m.Reactions = make(map[string]*Reaction)
		}
		c.Messages[m.Ts] = m
	})
}

// UpdateMessageText replaces the text of an existing message.
func (s *Store) UpdateMessageText(channelID, ts, text string) bool {
	updated := false
	s.mutateChannel(channelID, func(c *Channel) {
		if m, ok := c.Messages[ts]; ok {
			m.Text = text
			updated = true
		}
	})
	return updated
}

// DeleteMessage removes a message from its channel.
func (s *Store) DeleteMessage(channelID, ts string) bool {
	deleted := false
	s.mutateChannel(channelID, func(c *Channel) {
		if _, ok := c.Messages[ts]; ok {
			delete(c.Messages, ts)
			deleted = true
		}
	})
	return deleted
}

// SetMessageStarred flips a message's starred flag.
func (s *Store) SetMessageStarred(channelID, ts string, starred bool) bool {
	ok := false
	s.mutateChannel(channelID, func(c *Channel) {
		if m, found := c.Messages[ts]; found {
			m.IsStarred = starred
			ok = true
		}
	})
	return ok
}

// AddPending records a locally sent message awaiting its server ack, keyed
// by the client correlation id.
func (s *Store) AddPending(id int64, m *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = m
}

// PromotePending reconciles a server ack against the pending map. The
// pending message takes the server-assigned timestamp (and text, when the
// server altered it), moves into the owning channel's message map, and
// leaves the pending map. Returns the promoted message, or nil when no
// pending entry matches the correlation id.
func (s *Store) PromotePending(replyTo int64, ts, text string) *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.pending[replyTo]
	if !ok {
		return nil
	}
	delete(s.pending, replyTo)
	m.Ts = ts
	if text != "" {
		m.Text = text
	}
	c, ok := s.channels[m.Channel]
	if !ok {
		return nil
	}
	if m.Reactions == nil {
		m.Reactions = make(map[string]*Reaction)
	}
	c.Messages[ts] = m
	return m
}

// RemovePending discards a pending entry whose send never reached the
// server, so it cannot linger waiting for an ack that will not come.
func (s *Store) RemovePending(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// PendingCount reports how many sent messages still await their ack.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// SetTyping marks a user as typing in a channel. Returns true only when the
// user was not already marked, making duplicate typing events idempotent.
func (s *Store) SetTyping(channelID, userID string) bool {
	added := false
	s.mutateChannel(channelID, func(c *Channel) {
		if !c.Typing[userID] {
			c.Typing[userID] = true
			added = true
		}
	})
	return added
}

// ClearTyping removes a user from a channel's typing set.
func (s *Store) ClearTyping(channelID, userID string) bool {
	cleared := false
	s.mutateChannel(channelID, func(c *Channel) {
		if c.Typing[userID] {
			delete(c.Typing, userID)
			cleared = true
		}
	})
	return cleared
}

// AddPin appends a pinned item to a channel.
func (s *Store) AddPin(channelID string, item Item) bool {
	return s.mutateChannel(channelID, func(c *Channel) {
		c.Pins = append(c.Pins, item)
	})
}

// RemovePin removes a pinned item from a channel.
func (s *Store) RemovePin(channelID string, item Item) bool {
	return s.mutateChannel(channelID, func(c *Channel) {
		for i, p := range c.Pins {
			if p == item {
				c.Pins = append(c.Pins[:i], c.Pins[i+1:]...)
				return
			}
		}
	})
}

// UpsertFile inserts or replaces a file, preserving accumulated comments
// and reactions when the file already exists.
func (s *Store) UpsertFile(f *File) {
	if f == nil || f.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.files[f.ID]; ok {
		f.Comments = prev.Comments
		f.Reactions = prev.Reactions
	}
	if f.Comments == nil {
		f.Comments = make(map[string]*Comment)
	}
	if f.Reactions == nil {
		f.Reactions = make(map[string]*Reaction)
	}
	s.files[f.ID] = f
}

// RemoveFile drops a file from the mirror.
func (s *Store) RemoveFile(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return false
	}
	delete(s.files, id)
	return true
}

// SetFilePublic flips a file's visibility flag.
func (s *Store) SetFilePublic(id string, public bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return false
	}
	f.IsPublic = public
	return true
}

// SetFileStarred flips a file's starred flag and adjusts its star count.
func (s *Store) SetFileStarred(id string, starred bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return false
	}
	if starred && !f.IsStarred {
		f.NumStars++
	} else if !starred && f.IsStarred && f.NumStars > 0 {
		f.NumStars--
	}
	f.IsStarred = starred
	return true
}

// AddFileComment attaches a comment to a file.
func (s *Store) AddFileComment(fileID string, c *Comment) bool {
	if c == nil || c.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok {
		return false
	}
	if c.Reactions == nil {
		c.Reactions = make(map[string]*Reaction)
	}
	f.Comments[c.ID] = c
	return true
}

// RemoveFileComment detaches a comment from a file.
func (s *Store) RemoveFileComment(fileID, commentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok {
		return false
	}
	if _, ok := f.Comments[commentID]; !ok {
		return false
	}
	delete(f.Comments, commentID)
	return true
}

// AddReaction adds userID under the emoji name on the item's reaction map,
// creating the entry on first use. Returns false when the target is absent.
func (s *Store) AddReaction(item Item, emoji, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	reactions := s.reactionsFor(item)
	if reactions == nil {
		return false
	}
	r, ok := reactions[emoji]
	if !ok {
		r = &Reaction{Name: emoji, Users: make(map[string]bool)}
		reactions[emoji] = r
	}
	r.Users[userID] = true
	return true
}

// RemoveReaction removes userID from the emoji's user set on the item,
// deleting the reaction entry entirely once the set is empty.
func (s *Store) RemoveReaction(item Item, emoji, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	reactions := s.reactionsFor(item)
	if reactions == nil {
		return false
	}
	r, ok := reactions[emoji]
	if !ok {
		return false
	}
	delete(r.Users, userID)
	if len(r.Users) == 0 {
		delete(reactions, emoji)
	}
	return true
}

// reactionsFor resolves an item to its reaction map. Caller holds s.mu.
func (s *Store) reactionsFor(item Item) map[string]*Reaction {
	switch item.Type {
	case "message":
		c, ok := s.channels[item.ChannelID]
		if !ok {
			return nil
		}
		m, ok := c.Messages[item.Ts]
		if !ok {
			return nil
		}
		if m.Reactions == nil {
			m.Reactions = make(map[string]*Reaction)
		}
		return m.Reactions
	case "file":
		f, ok := s.files[item.FileID]
		if !ok {
			return nil
		}
		if f.Reactions == nil {
			f.Reactions = make(map[string]*Reaction)
		}
		return f.Reactions
	case "file_comment":
		f, ok := s.files[item.FileID]
		if !ok {
			return nil
		}
		cm, ok := f.Comments[item.CommentID]
		if !ok {
			return nil
		}
		if cm.Reactions == nil {
			cm.Reactions = make(map[string]*Reaction)
		}
		return cm.Reactions
	}
	return nil
}

// UpsertBot inserts or replaces a bot record.
func (s *Store) UpsertBot(b *Bot) {
	if b == nil || b.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots[b.ID] = b
}

// UpsertUserGroup inserts or replaces a user group.
func (s *Store) UpsertUserGroup(g *UserGroup) {
	if g == nil || g.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = g
}

// SetTeamName renames the team.
func (s *Store) SetTeamName(name, domain string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.team == nil {
		return false
	}
	if name != "" {
		s.team.Name = name
	}
	if domain != "" {
		s.team.Domain = domain
	}
	return true
}

// SetTeamPref records a team preference change.
func (s *Store) SetTeamPref(name string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.team == nil {
		return false
	}
	if s.team.Prefs == nil {
		s.team.Prefs = make(map[string]any)
	}
	s.team.Prefs[name] = value
	return true
}
