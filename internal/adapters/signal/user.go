package signal

import (
	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
)

func (ctl *SignalWSController) handleWhoAmI(
	sid core.SessionID,
	conn core.SignalConnection,
) {
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		ctl.sendError(conn, "not_bound")
		return
	}

	resp := struct {
		Type     string             `json:"type"`
		User     domain.Participant `json:"user"`
		Room     domain.RoomID      `json:"room,omitempty"`
		RoomName domain.RoomName    `json:"room_name,omitempty"`
		Seat     *int               `json:"seat,omitempty"`
	}{
		Type: "whoami",
		User: sess.Meta(),
	}
	if roomID, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		if room, ok := ctl.Orch.Rooms.GetRoom(roomID); ok {
			resp.RoomName = room.Room().Name
			resp.Room = roomID
			if idx, seated := room.SeatOf(sess.Meta().ID); seated {
				resp.Seat = &idx
			}
		}
	}
	ctl.sendTo(conn, resp)
}
