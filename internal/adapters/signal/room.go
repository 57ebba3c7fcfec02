package signal

import (
	"encoding/json"

	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomStateMessage struct {
	Type     string            `json:"type"`
	Room     domain.RoomID     `json:"room"`
	RoomName domain.RoomName   `json:"room_name"`
	Capacity int               `json:"capacity"`
	Seats    []domain.SeatSlot `json:"seats"`
}

type memberMessage struct {
	Type string             `json:"type"`
	User domain.Participant `json:"user"`
}

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	roomID := domain.RoomID(p.Room)
	if err := ctl.Orch.Join(sid, roomID); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room_id", p.Room).Msg("join")
		ctl.sendError(conn, errorCode(err))
		return
	}
	room, ok := ctl.Orch.Rooms.GetRoom(roomID)
	if !ok {
		ctl.sendError(conn, errorCode(core.ErrRoomNotFound))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", p.Room).Msg("join")

	ctl.sendTo(conn, roomStateMessage{
		Type:     "room_state",
		Room:     room.Room().ID,
		RoomName: room.Room().Name,
		Capacity: room.Capacity(),
		Seats:    room.Snapshot(),
	})

	if sess, ok := ctl.Orch.Registry.GetSession(sid); ok {
		ctl.BroadcastFrom(sid, memberMessage{Type: "member_joined", User: sess.Meta()})
	}
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid core.SessionID,
	conn core.SignalConnection,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	roomID, sess, ok := ctl.Orch.Registry.RoomOf(sid)

	ctl.Orch.KickBySID(sid)
	ctl.sendTo(conn, map[string]any{
		"type": "left",
	})

	if ok {
		ctl.BroadcastRoom(roomID, memberMessage{Type: "member_left", User: sess.Meta()})
	}
}
