package events

import "github.com/rmarinn/slacksync/internal/store"

// ReactionPayload is the bus payload for reaction.* notifications.
type ReactionPayload struct {
	User     string
	Reaction string
	Item     store.Item
}

func (r *Router) handleReaction(raw []byte, added bool) {
	var evt reactionEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.User == "" || evt.Reaction == "" || evt.Item.Type == "" {
		return
	}
	var ok bool
	var kind string
	if added {
		ok = r.store.AddReaction(evt.Item, evt.Reaction, evt.User)
		kind = "reaction.added"
	} else {
		ok = r.store.RemoveReaction(evt.Item, evt.Reaction, evt.User)
		kind = "reaction.removed"
	}
	if !ok {
		return
	}
	r.publish(kind, ReactionPayload{User: evt.User, Reaction: evt.Reaction, Item: evt.Item})
}

// FilePayload is the bus payload for file.* notifications.
type FilePayload struct {
	FileID    string
	CommentID string
}

func (r *Router) handleFileUpsert(raw []byte) {
	var evt fileEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.File == nil || evt.File.ID == "" {
		return
	}
	r.store.UpsertFile(evt.File)
	r.publish("file.changed", FilePayload{FileID: evt.File.ID})
}

func (r *Router) handleFilePublic(raw []byte) {
	var evt fileEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.File == nil || evt.File.ID == "" {
		return
	}
	if !r.store.SetFilePublic(evt.File.ID, true) {
		r.store.UpsertFile(evt.File)
	}
	r.publish("file.public", FilePayload{FileID: evt.File.ID})
}

func (r *Router) handleFileDeleted(raw []byte) {
	var evt fileEvent
	if !r.decode(raw, &evt) {
		return
	}
	id := evt.FileID
	if id == "" && evt.File != nil {
		id = evt.File.ID
	}
	if id == "" {
		return
	}
	if !r.store.RemoveFile(id) {
		return
	}
	r.publish("file.deleted", FilePayload{FileID: id})
}

func (r *Router) handleFileCommentAdded(raw []byte) {
	var evt fileCommentEvent
	if !r.decode(raw, &evt) {
		return
	}
	fileID := evt.FileID
	if fileID == "" && evt.File != nil {
		fileID = evt.File.ID
	}
	if fileID == "" || evt.Comment == nil || evt.Comment.ID == "" {
		return
	}
	if evt.File != nil {
		r.store.UpsertFile(evt.File)
	}
	if !r.store.AddFileComment(fileID, evt.Comment) {
		return
	}
	r.publish("file.comment_added", FilePayload{FileID: fileID, CommentID: evt.Comment.ID})
}

func (r *Router) handleFileCommentDeleted(raw []byte) {
	var evt fileCommentEvent
	if !r.decode(raw, &evt) {
		return
	}
	fileID := evt.FileID
	if fileID == "" && evt.File != nil {
		fileID = evt.File.ID
	}
	if fileID == "" || evt.Comment == nil || evt.Comment.ID == "" {
		return
	}
	if !r.store.RemoveFileComment(fileID, evt.Comment.ID) {
		return
	}
	r.publish("file.comment_removed", FilePayload{FileID: fileID, CommentID: evt.Comment.ID})
}

// StarPayload is the bus payload for star.* notifications.
type StarPayload struct {
	User string
	Item store.Item
}

func (r *Router) handleStar(raw []byte, starred bool) {
	var evt starEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.User == "" || evt.Item.Type == "" {
		return
	}
	var ok bool
	switch evt.Item.Type {
	case "message":
		if evt.Item.ChannelID == "" || evt.Item.Ts == "" {
			return
		}
		ok = r.store.SetMessageStarred(evt.Item.ChannelID, evt.Item.Ts, starred)
	case "file":
		if evt.Item.FileID == "" {
			return
		}
		ok = r.store.SetFileStarred(evt.Item.FileID, starred)
	default:
		return
	}
	if !ok {
		return
	}
	kind := "star.added"
	if !starred {
		kind = "star.removed"
	}
	r.publish(kind, StarPayload{User: evt.User, Item: evt.Item})
}

// PinPayload is the bus payload for pin.* notifications.
type PinPayload struct {
	User    string
	Channel string
	Item    store.Item
}

func (r *Router) handlePin(raw []byte, pinned bool) {
	var evt pinEvent
	if !r.decode(raw, &evt) {
		return
	}
	if evt.ChannelID == "" || evt.Item.Type == "" {
		return
	}
	var ok bool
	var kind string
	if pinned {
		ok = r.store.AddPin(evt.ChannelID, evt.Item)
		kind = "pin.added"
	} else {
		ok = r.store.RemovePin(evt.ChannelID, evt.Item)
		kind = "pin.removed"
	}
	if !ok {
		return
	}
	r.publish(kind, PinPayload{User: evt.User, Channel: evt.ChannelID, Item: evt.Item})
}
