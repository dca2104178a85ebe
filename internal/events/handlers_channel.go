package events

// ChannelPayload is the bus payload for channel.* notifications.
type ChannelPayload struct {
	Channel string
	User    string
	Ts      string
	Name    string
}

func (r *Router) handleChannelCreated(raw []byte) {
	var evt channelEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel.Obj == nil || evt.Channel.ID == "" {
		return
	}
	r.store.UpsertChannel(evt.Channel.Obj)
	r.publish("channel.created", ChannelPayload{Channel: evt.Channel.ID})
}

func (r *Router) handleChannelJoined(raw []byte) {
	var evt channelEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel.ID == "" {
		return
	}
	if evt.Channel.Obj != nil {
		evt.Channel.Obj.IsMember = true
		r.store.UpsertChannel(evt.Channel.Obj)
	} else if !r.store.SetMember(evt.Channel.ID, true) {
		return
	}
	r.publish("channel.joined", ChannelPayload{Channel: evt.Channel.ID})
}

func (r *Router) handleChannelLeft(raw []byte) {
	var evt channelEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel.ID == "" {
		return
	}
	if !r.store.SetMember(evt.Channel.ID, false) {
		return
	}
	r.publish("channel.left", ChannelPayload{Channel: evt.Channel.ID})
}

func (r *Router) handleChannelDeleted(raw []byte) {
	var evt channelEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel.ID == "" {
		return
	}
	if !r.store.RemoveChannel(evt.Channel.ID) {
		return
	}
	r.publish("channel.deleted", ChannelPayload{Channel: evt.Channel.ID})
}

func (r *Router) handleChannelRename(raw []byte) {
	var evt channelRenameEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel.ID == "" || evt.Channel.Name == "" {
		return
	}
	if !r.store.Rename(evt.Channel.ID, evt.Channel.Name) {
		return
	}
	r.publish("channel.renamed", ChannelPayload{Channel: evt.Channel.ID, Name: evt.Channel.Name})
}

func (r *Router) handleChannelArchive(raw []byte, archived bool) {
	var evt channelEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel.ID == "" {
		return
	}
	if !r.store.SetArchived(evt.Channel.ID, archived) {
		return
	}
	kind := "channel.archived"
	if !archived {
		kind = "channel.unarchived"
	}
	r.publish(kind, ChannelPayload{Channel: evt.Channel.ID, User: evt.User})
}

func (r *Router) handleChannelMarked(raw []byte) {
	var evt channelMarkEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel == "" || evt.Ts == "" {
		return
	}
	if !r.store.SetLastRead(evt.Channel, evt.Ts) {
		return
	}
	r.publish("channel.marked", ChannelPayload{Channel: evt.Channel, Ts: evt.Ts})
}

func (r *Router) handleChannelOpen(raw []byte, open bool) {
	var evt channelEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel.ID == "" {
		return
	}
	if !r.store.SetOpen(evt.Channel.ID, open) {
		return
	}
	kind := "channel.opened"
	if !open {
		kind = "channel.closed"
	}
	r.publish(kind, ChannelPayload{Channel: evt.Channel.ID, User: evt.User})
}

func (r *Router) handleMember(raw []byte, joined bool) {
	var evt memberEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.Channel == "" || evt.User == "" {
		return
	}
	var ok bool
	var kind string
	if joined {
		ok = r.store.AddMember(evt.Channel, evt.User)
		kind = "channel.member_joined"
	} else {
		ok = r.store.RemoveMember(evt.Channel, evt.User)
		kind = "channel.member_left"
	}
	if !ok {
		return
	}
	r.publish(kind, ChannelPayload{Channel: evt.Channel, User: evt.User})
}
