package store

import (
	"fmt"
	"testing"
)

func snapshotFixture() *Snapshot {
	return &Snapshot{
		OK:   true,
		URL:  "wss://example.invalid/socket",
		Self: &User{ID: "U1", Name: "me"},
		Team: &Team{ID: "T1", Name: "acme"},
		Users: []*User{
			{ID: "U1", Name: "me"},
			{ID: "U2", Name: "bob"},
		},
		Channels: []*Channel{
			{ID: "C1", Name: "general", IsChannel: true, IsMember: true},
		},
		IMs: []*Channel{
			{ID: "D1", IsIM: true, UserID: "U2"},
		},
		Bots:     []*Bot{{ID: "B1", Name: "deploybot"}},
		Subteams: []*UserGroup{{ID: "S1", Handle: "oncall"}},
	}
}

func loadedStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.LoadSnapshot(snapshotFixture())
	return s
}

func TestLoadSnapshot(t *testing.T) {
	s := loadedStore(t)

	if s.Team() == nil || s.Team().ID != "T1" {
		t.Error("team not loaded")
	}
	if s.Self() == nil || s.Self().ID != "U1" {
		t.Error("self not loaded")
	}
	if _, err := s.User("U2"); err != nil {
		t.Errorf("User(U2) error = %v", err)
	}
	c, err := s.Channel("C1")
	if err != nil {
		t.Fatalf("Channel(C1) error = %v", err)
	}
	if c.Messages == nil || c.Typing == nil {
		t.Error("channel runtime maps not initialized")
	}
	if _, err := s.Channel("D1"); err != nil {
		t.Errorf("IM not loaded: %v", err)
	}
	if _, err := s.Bot("B1"); err != nil {
		t.Errorf("bot not loaded: %v", err)
	}
	if _, err := s.UserGroup("S1"); err != nil {
		t.Errorf("subteam not loaded: %v", err)
	}
}

// Reconnect rebuilds the mirror from a fresh snapshot: nothing from the old
// mirror survives unless re-delivered.
func TestReloadReplacesEverything(t *testing.T) {
	s := loadedStore(t)
	s.AddMessage(&Message{Channel: "C1", Ts: "100.1", Text: "hi"})
	s.AddPending(42, &Message{Channel: "C1", Text: "pending"})

	s.LoadSnapshot(&Snapshot{
		OK:       true,
		Self:     &User{ID: "U1"},
		Team:     &Team{ID: "T1"},
		Channels: []*Channel{{ID: "C2", Name: "other"}},
	})

	if _, err := s.Channel("C1"); err == nil {
		t.Error("stale channel survived reload")
	}
	if _, err := s.User("U2"); err == nil {
		t.Error("stale user survived reload")
	}
	if s.PendingCount() != 0 {
		t.Errorf("pending count = %d after reload, want 0", s.PendingCount())
	}
	if _, err := s.Channel("C2"); err != nil {
		t.Errorf("new channel missing: %v", err)
	}
}

func TestLookupMiss(t *testing.T) {
	s := New()
	if _, err := s.Channel("C404"); err == nil {
		t.Error("expected error for missing channel")
	}
	if _, err := s.ChannelByName("nope"); err == nil {
		t.Error("expected error for missing channel name")
	}
	if _, err := s.UserByName("nobody"); err == nil {
		t.Error("expected error for missing user name")
	}
}

func TestAddUpdateDeleteMessage(t *testing.T) {
	s := loadedStore(t)

	if !s.AddMessage(&Message{Channel: "C1", Ts: "100.1", Text: "hi"}) {
		t.Fatal("AddMessage failed")
	}
	c, _ := s.Channel("C1")
	if got := c.Messages["100.1"].Text; got != "hi" {
		t.Errorf("text = %q, want hi", got)
	}

	if !s.UpdateMessageText("C1", "100.1", "edited") {
		t.Fatal("UpdateMessageText failed")
	}
	if got := c.Messages["100.1"].Text; got != "edited" {
		t.Errorf("text = %q, want edited", got)
	}

	if !s.DeleteMessage("C1", "100.1") {
		t.Fatal("DeleteMessage failed")
	}
	if _, ok := c.Messages["100.1"]; ok {
		t.Error("message still present after delete")
	}

	if s.AddMessage(&Message{Channel: "C404", Ts: "1.0"}) {
		t.Error("AddMessage succeeded for unknown channel")
	}
	if s.UpdateMessageText("C1", "404.0", "x") {
		t.Error("UpdateMessageText succeeded for unknown ts")
	}
	if s.DeleteMessage("C1", "404.0") {
		t.Error("DeleteMessage succeeded for unknown ts")
	}
}

func TestPendingPromotion(t *testing.T) {
	s := loadedStore(t)
	s.AddPending(7, &Message{Channel: "C1", User: "U1", Text: "draft"})

	m := s.PromotePending(7, "200.5", "draft (edited by server)")
	if m == nil {
		t.Fatal("PromotePending returned nil")
	}
	if m.Ts != "200.5" || m.Text != "draft (edited by server)" {
		t.Errorf("promoted message = %+v", m)
	}

	c, _ := s.Channel("C1")
	if _, ok := c.Messages["200.5"]; !ok {
		t.Error("promoted message not in channel map")
	}
	if s.PendingCount() != 0 {
		t.Errorf("pending count = %d, want 0", s.PendingCount())
	}
}

func TestPendingPromotionKeepsTextWhenServerOmitsIt(t *testing.T) {
	s := loadedStore(t)
	s.AddPending(8, &Message{Channel: "C1", Text: "original"})

	m := s.PromotePending(8, "201.0", "")
	if m == nil {
		t.Fatal("PromotePending returned nil")
	}
	if m.Text != "original" {
		t.Errorf("text = %q, want original", m.Text)
	}
}

func TestRemovePendingDiscardsFailedSend(t *testing.T) {
	s := loadedStore(t)
	s.AddPending(9, &Message{Channel: "C1", Text: "never sent"})

	s.RemovePending(9)
	if s.PendingCount() != 0 {
		t.Fatalf("pending count = %d, want 0", s.PendingCount())
	}
	if m := s.PromotePending(9, "202.0", ""); m != nil {
		t.Errorf("promoted a removed entry: %+v", m)
	}
}

func TestPromoteUnknownCorrelationID(t *testing.T) {
	s := loadedStore(t)
	if m := s.PromotePending(999, "1.0", "x"); m != nil {
		t.Errorf("PromotePending(999) = %+v, want nil", m)
	}
	c, _ := s.Channel("C1")
	if len(c.Messages) != 0 {
		t.Error("unmatched ack mutated channel messages")
	}
}

// The final reaction set must equal the set-theoretic result of applying
// adds and removes in order; the entry is absent iff the set is empty.
func TestReactionSequences(t *testing.T) {
	item := Item{Type: "message", ChannelID: "C1", Ts: "100.1"}

	type op struct {
		add  bool
		user string
	}
	cases := []struct {
		name  string
		ops   []op
		users []string // expected final set, nil = entry absent
	}{
		{"single add", []op{{true, "U1"}}, []string{"U1"}},
		{"add then remove", []op{{true, "U1"}, {false, "U1"}}, nil},
		{"duplicate add", []op{{true, "U1"}, {true, "U1"}}, []string{"U1"}},
		{"two users one leaves", []op{{true, "U1"}, {true, "U2"}, {false, "U1"}}, []string{"U2"}},
		{"remove before add", []op{{false, "U1"}, {true, "U1"}}, []string{"U1"}},
		{"add remove add", []op{{true, "U1"}, {false, "U1"}, {true, "U1"}}, []string{"U1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := loadedStore(t)
			s.AddMessage(&Message{Channel: "C1", Ts: "100.1", Text: "hi"})
			for _, o := range tc.ops {
				if o.add {
					s.AddReaction(item, "thumbsup", o.user)
				} else {
					s.RemoveReaction(item, "thumbsup", o.user)
				}
			}
			c, _ := s.Channel("C1")
			r, ok := c.Messages["100.1"].Reactions["thumbsup"]
			if tc.users == nil {
				if ok {
					t.Fatalf("reaction entry present with users %v, want absent", r.Users)
				}
				return
			}
			if !ok {
				t.Fatal("reaction entry absent")
			}
			if len(r.Users) != len(tc.users) {
				t.Fatalf("user set = %v, want %v", r.Users, tc.users)
			}
			for _, u := range tc.users {
				if !r.Users[u] {
					t.Errorf("user %s missing from set %v", u, r.Users)
				}
			}
		})
	}
}

func TestReactionsOnFilesAndComments(t *testing.T) {
	s := New()
	s.UpsertFile(&File{ID: "F1"})
	s.AddFileComment("F1", &Comment{ID: "Fc1", Comment: "nice"})

	fileItem := Item{Type: "file", FileID: "F1"}
	commentItem := Item{Type: "file_comment", FileID: "F1", CommentID: "Fc1"}

	if !s.AddReaction(fileItem, "eyes", "U1") {
		t.Fatal("AddReaction on file failed")
	}
	if !s.AddReaction(commentItem, "eyes", "U2") {
		t.Fatal("AddReaction on comment failed")
	}

	f, _ := s.File("F1")
	if f.Reactions["eyes"].Count() != 1 {
		t.Error("file reaction count wrong")
	}
	if f.Comments["Fc1"].Reactions["eyes"].Count() != 1 {
		t.Error("comment reaction count wrong")
	}

	if !s.RemoveReaction(fileItem, "eyes", "U1") {
		t.Fatal("RemoveReaction on file failed")
	}
	if _, ok := f.Reactions["eyes"]; ok {
		t.Error("empty file reaction entry not removed")
	}

	if s.AddReaction(Item{Type: "file", FileID: "F404"}, "x", "U1") {
		t.Error("AddReaction succeeded on missing file")
	}
}

func TestTypingIdempotent(t *testing.T) {
	s := loadedStore(t)

	if !s.SetTyping("C1", "U2") {
		t.Fatal("first SetTyping returned false")
	}
	if s.SetTyping("C1", "U2") {
		t.Error("duplicate SetTyping returned true")
	}
	c, _ := s.Channel("C1")
	if len(c.Typing) != 1 {
		t.Errorf("typing set size = %d, want 1", len(c.Typing))
	}

	if !s.ClearTyping("C1", "U2") {
		t.Error("ClearTyping returned false")
	}
	if s.ClearTyping("C1", "U2") {
		t.Error("second ClearTyping returned true")
	}
}

func TestChannelMembershipAndFlags(t *testing.T) {
	s := loadedStore(t)

	s.AddMember("C1", "U2")
	s.AddMember("C1", "U2") // idempotent
	c, _ := s.Channel("C1")
	if len(c.Members) != 1 {
		t.Errorf("members = %v, want [U2]", c.Members)
	}
	s.RemoveMember("C1", "U2")
	if len(c.Members) != 0 {
		t.Errorf("members = %v after remove", c.Members)
	}

	s.SetArchived("C1", true)
	if !c.IsArchived {
		t.Error("IsArchived not set")
	}
	s.Rename("C1", "general-2")
	if c.Name != "general-2" {
		t.Error("rename not applied")
	}
	s.SetLastRead("C1", "300.0")
	if c.LastRead != "300.0" {
		t.Error("last read not applied")
	}
}

func TestUpsertChannelPreservesRuntimeState(t *testing.T) {
	s := loadedStore(t)
	s.AddMessage(&Message{Channel: "C1", Ts: "1.0", Text: "keep me"})
	s.SetTyping("C1", "U2")

	s.UpsertChannel(&Channel{ID: "C1", Name: "general", Topic: Property{Value: "new topic"}})

	c, _ := s.Channel("C1")
	if _, ok := c.Messages["1.0"]; !ok {
		t.Error("messages lost on upsert")
	}
	if !c.Typing["U2"] {
		t.Error("typing set lost on upsert")
	}
	if c.Topic.Value != "new topic" {
		t.Error("upsert did not apply new fields")
	}
}

func TestFileStars(t *testing.T) {
	s := New()
	s.UpsertFile(&File{ID: "F1", NumStars: 2})

	s.SetFileStarred("F1", true)
	f, _ := s.File("F1")
	if !f.IsStarred || f.NumStars != 3 {
		t.Errorf("after star: starred=%v stars=%d", f.IsStarred, f.NumStars)
	}
	s.SetFileStarred("F1", false)
	if f.IsStarred || f.NumStars != 2 {
		t.Errorf("after unstar: starred=%v stars=%d", f.IsStarred, f.NumStars)
	}
}

func TestPins(t *testing.T) {
	s := loadedStore(t)
	item := Item{Type: "message", ChannelID: "C1", Ts: "5.0"}

	s.AddPin("C1", item)
	c, _ := s.Channel("C1")
	if len(c.Pins) != 1 {
		t.Fatalf("pins = %v", c.Pins)
	}
	s.RemovePin("C1", item)
	if len(c.Pins) != 0 {
		t.Errorf("pins = %v after remove", c.Pins)
	}
}

func TestPresenceAndDnD(t *testing.T) {
	s := loadedStore(t)

	if !s.SetPresence("U2", "away") {
		t.Fatal("SetPresence failed")
	}
	u, _ := s.User("U2")
	if u.Presence != "away" {
		t.Error("presence not applied")
	}
	if s.SetPresence("U404", "away") {
		t.Error("SetPresence succeeded for unknown user")
	}

	if !s.SetDnD("U2", &DnDStatus{Enabled: true}) {
		t.Fatal("SetDnD failed")
	}
	if u.DnD == nil || !u.DnD.Enabled {
		t.Error("dnd not applied")
	}
}

func TestUpsertUserPreservesPresence(t *testing.T) {
	s := loadedStore(t)
	s.SetPresence("U2", "active")

	s.UpsertUser(&User{ID: "U2", Name: "robert"})

	u, _ := s.User("U2")
	if u.Name != "robert" {
		t.Error("upsert did not apply new name")
	}
	if u.Presence != "active" {
		t.Error("presence lost on upsert")
	}
}

func TestClearSelf(t *testing.T) {
	s := loadedStore(t)
	s.ClearSelf()
	if s.Self() != nil {
		t.Error("self still set after ClearSelf")
	}
}

func TestConcurrentReadsDuringMutation(t *testing.T) {
	s := loadedStore(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.AddMessage(&Message{Channel: "C1", Ts: fmt.Sprintf("%d.0", i), Text: "x"})
		}
	}()
	for i := 0; i < 1000; i++ {
		_, _ = s.Channel("C1")
		_ = s.Channels()
	}
	<-done
}
