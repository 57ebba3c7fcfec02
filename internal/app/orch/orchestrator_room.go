package orch

import (
	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) Join(sid core.SessionID, roomID domain.RoomID) error {
	if _, ok := o.Rooms.GetRoom(roomID); !ok {
		return core.ErrRoomNotFound
	}
	if from, _, ok := o.Registry.RoomOf(sid); ok {
		if from == roomID {
			return nil
		}
		o.KickBySID(sid)
		log.Info().Str("sid", string(sid)).Str("from_room", string(from)).Msg("kicked from room")
	}
	if !o.Registry.UpdateRoom(sid, roomID) {
		return core.ErrRoomNotFound
	}
	log.Info().Str("sid", string(sid)).Str("room", string(roomID)).Msg("added to room")
	return nil
}

// KickBySID removes sid from its room. The connection stays open.
// Seats belong to the account, so the seat is vacated only once no other
// session of the same account remains in the room.
func (o *Orchestrator) KickBySID(sid core.SessionID) {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	if o.leaveRoom(sid, roomID) {
		o.BroadcastSeats(roomID)
	}
}

func (o *Orchestrator) leaveRoom(sid core.SessionID, roomID domain.RoomID) bool {
	mu := o.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	current, sess, ok := o.Registry.RoomOf(sid)
	if !ok || current != roomID {
		return false
	}
	o.Registry.RemoveRoom(sid)
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return false
	}
	id := sess.Meta().ID
	for _, snap := range o.Registry.MembersOfRoom(roomID) {
		if snap.Session.Meta().ID == id {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("user", string(id)).Msg("seat kept by another session")
			return false
		}
	}
	_, seated := room.Leave(id)
	return seated
}

func (o *Orchestrator) OnDisconnect(sid core.SessionID, sc core.SignalConnection) {
	if !o.Registry.Owns(sid, sc) {
		return
	}
	o.KickBySID(sid)
	o.Registry.Unbind(sid)
}

func (o *Orchestrator) EvictRoom(id domain.RoomID) {
	for _, snap := range o.Registry.MembersOfRoom(id) {
		o.KickBySID(snap.SID)
	}
	o.Rooms.StopRoom(id)
	o.roomOps.Delete(id)
}
