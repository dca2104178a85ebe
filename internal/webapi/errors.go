package webapi

import "fmt"

// Kind classifies a service-reported error code into a closed taxonomy.
type Kind string

const (
	KindChannelNotFound  Kind = "channel_not_found"
	KindUserNotFound     Kind = "user_not_found"
	KindNotInChannel     Kind = "not_in_channel"
	KindIsArchived       Kind = "is_archived"
	KindMsgTooLong       Kind = "msg_too_long"
	KindNoText           Kind = "no_text"
	KindRateLimited      Kind = "rate_limited"
	KindInvalidAuth      Kind = "invalid_auth"
	KindNotAuthed        Kind = "not_authed"
	KindAccountInactive  Kind = "account_inactive"
	KindTokenRevoked     Kind = "token_revoked"
	KindAlreadyReacted   Kind = "already_reacted"
	KindNoReaction       Kind = "no_reaction"
	KindBadTimestamp     Kind = "bad_timestamp"
	KindMessageNotFound  Kind = "message_not_found"
	KindCantDelete       Kind = "cant_delete_message"
	KindCantUpdate       Kind = "cant_update_message"
	KindEditWindowClosed Kind = "edit_window_closed"
	KindNotAuthorized    Kind = "not_authorized"
	KindPermissionDenied Kind = "perms_failure"
	KindFileNotFound     Kind = "file_not_found"
	KindFileDeleted      Kind = "file_deleted"
	KindAlreadyPinned    Kind = "already_pinned"
	KindNotPinned        Kind = "not_pinned"
	KindAlreadyStarred   Kind = "already_starred"
	KindNotStarred       Kind = "not_starred"
	KindNameTaken        Kind = "name_taken"
	KindRestrictedAction Kind = "restricted_action"
	KindUserNotVisible   Kind = "user_not_visible"
	// KindUnknown is the catch-all for codes outside the taxonomy.
	KindUnknown Kind = "unknown"
)

// kindByCode maps service error codes onto the taxonomy. Codes absent from
// the table classify as KindUnknown; the lookup never fails.
var kindByCode = map[string]Kind{
	"channel_not_found":   KindChannelNotFound,
	"user_not_found":      KindUserNotFound,
	"user_not_visible":    KindUserNotVisible,
	"not_in_channel":      KindNotInChannel,
	"is_archived":         KindIsArchived,
	"already_archived":    KindIsArchived,
	"msg_too_long":        KindMsgTooLong,
	"no_text":             KindNoText,
	"rate_limited":        KindRateLimited,
	"ratelimited":         KindRateLimited,
	"invalid_auth":        KindInvalidAuth,
	"not_authed":          KindNotAuthed,
	"account_inactive":    KindAccountInactive,
	"token_revoked":       KindTokenRevoked,
	"already_reacted":     KindAlreadyReacted,
	"no_reaction":         KindNoReaction,
	"bad_timestamp":       KindBadTimestamp,
	"message_not_found":   KindMessageNotFound,
	"cant_delete_message": KindCantDelete,
	"cant_update_message": KindCantUpdate,
	"edit_window_closed":  KindEditWindowClosed,
	"not_authorized":      KindNotAuthorized,
	"perms_failure":       KindPermissionDenied,
	"file_not_found":      KindFileNotFound,
	"file_deleted":        KindFileDeleted,
	"already_pinned":      KindAlreadyPinned,
	"not_pinned":          KindNotPinned,
	"already_starred":     KindAlreadyStarred,
	"not_starred":         KindNotStarred,
	"name_taken":          KindNameTaken,
	"restricted_action":   KindRestrictedAction,
}

// classify maps a raw error code to its Kind, falling back to KindUnknown.
func classify(code string) Kind {
	if k, ok := kindByCode[code]; ok {
		return k
	}
	return KindUnknown
}

// APIError is a domain-level failure reported by the service in an
// otherwise well-formed response.
type APIError struct {
	Code string
	Kind Kind
}

func (e *APIError) Error() string {
	if e.Kind == KindUnknown {
		return fmt.Sprintf("api error: %s (unknown)", e.Code)
	}
	return fmt.Sprintf("api error: %s", e.Code)
}

// newAPIError builds an APIError from the service's textual code.
func newAPIError(code string) *APIError {
	return &APIError{Code: code, Kind: classify(code)}
}

// TransportError is a failure below the service protocol: the request never
// produced a decodable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
