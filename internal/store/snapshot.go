package store

// Snapshot is the decoded body of the session-start handshake: the socket
// URL plus the full initial state the mirror is bulk-loaded from.
type Snapshot struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	URL   string `json:"url"`

	Self     *User        `json:"self"`
	Team     *Team        `json:"team"`
	Users    []*User      `json:"users"`
	Channels []*Channel   `json:"channels"`
	Groups   []*Channel   `json:"groups"`
	MPIMs    []*Channel   `json:"mpims"`
	IMs      []*Channel   `json:"ims"`
	Bots     []*Bot       `json:"bots"`
	Subteams []*UserGroup `json:"subteams"`
}
