package events

import "github.com/rmarinn/slacksync/internal/store"

// PresencePayload is the bus payload for presence.* notifications.
type PresencePayload struct {
	User     string
	Presence string
}

func (r *Router) handlePresence(raw []byte) {
	var evt presenceEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.User == "" || evt.Presence == "" {
		return
	}
	if !r.store.SetPresence(evt.User, evt.Presence) {
		return
	}
	r.publish("presence.changed", PresencePayload{User: evt.User, Presence: evt.Presence})
}

// PrefPayload is the bus payload for preference notifications.
type PrefPayload struct {
	Name  string
	Value any
}

func (r *Router) handlePrefChange(raw []byte) {
	var evt prefEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Name == "" {
		return
	}
	r.store.SetUserPref(evt.Name, evt.Value)
	r.publish("presence.pref_changed", PrefPayload{Name: evt.Name, Value: evt.Value})
}

// UserPayload is the bus payload for profile and team-membership events.
type UserPayload struct {
	User string
}

func (r *Router) handleUserChange(raw []byte) {
	var evt userEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.User == nil || evt.User.ID == "" {
		return
	}
	r.store.UpsertUser(evt.User)
	r.publish("profile.changed", UserPayload{User: evt.User.ID})
}

func (r *Router) handleTeamJoin(raw []byte) {
	var evt userEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.User == nil || evt.User.ID == "" {
		return
	}
	r.store.UpsertUser(evt.User)
	r.publish("team.user_joined", UserPayload{User: evt.User.ID})
}

// TeamPayload is the bus payload for team.* notifications.
type TeamPayload struct {
	Name   string
	Domain string
}

func (r *Router) handleTeamRename(raw []byte) {
	var evt teamRenameEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Name == "" {
		return
	}
	if !r.store.SetTeamName(evt.Name, "") {
		return
	}
	r.publish("team.renamed", TeamPayload{Name: evt.Name})
}

func (r *Router) handleTeamDomainChange(raw []byte) {
	var evt teamDomainEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Domain == "" {
		return
	}
	if !r.store.SetTeamName("", evt.Domain) {
		return
	}
	r.publish("team.domain_changed", TeamPayload{Domain: evt.Domain})
}

func (r *Router) handleTeamPrefChange(raw []byte) {
	var evt prefEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Name == "" {
		return
	}
	if !r.store.SetTeamPref(evt.Name, evt.Value) {
		return
	}
	r.publish("team.pref_changed", PrefPayload{Name: evt.Name, Value: evt.Value})
}

func (r *Router) handleBot(raw []byte) {
	var evt botEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Bot == nil || evt.Bot.ID == "" {
		return
	}
	r.store.UpsertBot(evt.Bot)
	r.publish("team.bot_changed", UserPayload{User: evt.Bot.ID})
}

// SubteamPayload is the bus payload for subteam.* notifications.
type SubteamPayload struct {
	Subteam string
}

func (r *Router) handleSubteam(raw []byte) {
	var evt subteamEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Subteam == nil || evt.Subteam.ID == "" {
		return
	}
	r.store.UpsertUserGroup(evt.Subteam)
	r.publish("subteam.updated", SubteamPayload{Subteam: evt.Subteam.ID})
}

// DnDPayload is the bus payload for dnd.* notifications.
type DnDPayload struct {
	User   string
	Status *store.DnDStatus
}

func (r *Router) handleDnD(raw []byte) {
	var evt dndEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.User == "" || evt.DnDStatus == nil {
		return
	}
	if !r.store.SetDnD(evt.User, evt.DnDStatus) {
		return
	}
	r.publish("dnd.updated", DnDPayload{User: evt.User, Status: evt.DnDStatus})
}
