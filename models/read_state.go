package models

import "time"

// ReadMarker is the per-user, per-channel watermark: everything created at
// or before LastReadAt counts as read. A channel never visited has no row,
// which the repository reports as the zero time ("beginning of time").
type ReadMarker struct {
	UserID     string    `json:"user_id"`
	ChannelID  string    `json:"channel_id"`
	LastReadAt time.Time `json:"last_read_at"`
}

// UnreadCounts is the derived badge payload. It is never stored; the
// aggregator recomputes it from the message store and read markers on
// every request. Stale marks the zero-value fallback returned when the
// store is unavailable, so the client can keep its previous badge instead
// of showing zeros as truth.
type UnreadCounts struct {
	General    int  `json:"general"`
	Committee  int  `json:"committee"`
	Hosts      int  `json:"hosts"`
	Drivers    int  `json:"drivers"`
	Recipients int  `json:"recipients"`
	CoreTeam   int  `json:"core_team"`
	Direct     int  `json:"direct"`
	Groups     int  `json:"groups"`
	Total      int  `json:"total"`
	Stale      bool `json:"stale,omitempty"`
}

// SetRoom assigns a fixed-room count to its bucket.
func (c *UnreadCounts) SetRoom(room string, count int) {
	switch room {
	case RoomGeneral:
		c.General = count
	case RoomCommittee:
		c.Committee = count
	case RoomHosts:
		c.Hosts = count
	case RoomDrivers:
		c.Drivers = count
	case RoomRecipients:
		c.Recipients = count
	case RoomCoreTeam:
		c.CoreTeam = count
	}
}

// Sum recomputes Total from the buckets.
func (c *UnreadCounts) Sum() {
	c.Total = c.General + c.Committee + c.Hosts + c.Drivers +
		c.Recipients + c.CoreTeam + c.Direct + c.Groups
}
