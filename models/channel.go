package models

// Fixed room identifiers. Membership is derived from permissions rather
// than stored; dynamic conversations carry an explicit participant list.
const (
	RoomGeneral    = "general"
	RoomCommittee  = "committee"
	RoomHosts      = "hosts"
	RoomDrivers    = "drivers"
	RoomRecipients = "recipients"
	RoomCoreTeam   = "core_team"
)

// RoomPolicies maps each fixed room to the capability required to read it,
// post to it and be counted/notified for it. Posting and listing consult
// this one table; there are no per-room special cases.
var RoomPolicies = map[string]string{
	RoomGeneral:    PermGeneralChat,
	RoomCommittee:  PermCommitteeChat,
	RoomHosts:      PermHostChat,
	RoomDrivers:    PermDriverChat,
	RoomRecipients: PermRecipientChat,
	RoomCoreTeam:   PermCoreTeamChat,
}

// roomOrder keeps listings stable; map iteration order is random.
var roomOrder = []string{
	RoomGeneral, RoomCommittee, RoomHosts, RoomDrivers, RoomRecipients, RoomCoreTeam,
}

// IsRoom reports whether channel names a fixed room (as opposed to a
// conversation ID).
func IsRoom(channel string) bool {
	_, ok := RoomPolicies[channel]
	return ok
}

// CanAccessRoom reports whether the user may read and post in the room.
// Admins always can.
func CanAccessRoom(u *User, room string) bool {
	required, ok := RoomPolicies[room]
	if !ok {
		return false
	}
	return u.Role == RoleAdmin || u.HasPermission(required)
}

// AllowedRooms returns the fixed rooms the user has access to, in display
// order.
func AllowedRooms(u *User) []string {
	rooms := make([]string, 0, len(roomOrder))
	for _, room := range roomOrder {
		if CanAccessRoom(u, room) {
			rooms = append(rooms, room)
		}
	}
	return rooms
}
