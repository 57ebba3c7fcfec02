package orch

import (
	"errors"
	"time"

	"github.com/dkeye/LiveTalk/internal/app"
	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/dkeye/LiveTalk/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInRoom = errors.New("not in a room")
	ErrForbidden = errors.New("forbidden")
)

// seatOp resolves sid's room, checks the seat policy, runs fn and, on success,
// pushes the new seat state to the room.
func (o *Orchestrator) seatOp(sid core.SessionID, action app.SeatAction, index int, fn func(core.SeatRoom) error) error {
	err := o.runSeatOp(sid, action, index, fn)
	metrics.SeatOps.WithLabelValues(action.String(), metrics.Outcome(err)).Inc()
	return err
}

func (o *Orchestrator) runSeatOp(sid core.SessionID, action app.SeatAction, index int, fn func(core.SeatRoom) error) error {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return ErrNotInRoom
	}
	if err := o.lockedSeatOp(sid, roomID, action, index, fn); err != nil {
		return err
	}
	o.BroadcastSeats(roomID)
	return nil
}

// lockedSeatOp runs the policy check and fn under the room's operation lock.
// The broadcast happens after release since Publish may kick members.
func (o *Orchestrator) lockedSeatOp(sid core.SessionID, roomID domain.RoomID, action app.SeatAction, index int, fn func(core.SeatRoom) error) error {
	mu := o.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	// the session may have been kicked or moved while waiting for the lock
	current, sess, ok := o.Registry.RoomOf(sid)
	if !ok || current != roomID {
		return ErrNotInRoom
	}
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return core.ErrRoomNotFound
	}
	if index < 0 || index >= room.Capacity() {
		return core.ErrInvalidIndex
	}
	actor := sess.Meta()
	if o.Seats != nil && !o.Seats.Allow(room, actor, action, index) {
		log.Warn().Str("module", "orch").Str("user", string(actor.ID)).Str("action", action.String()).Int("seat", index).Msg("seat action denied")
		return ErrForbidden
	}
	return fn(room)
}

func (o *Orchestrator) ClaimSeat(sid core.SessionID, index int) error {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return ErrNotInRoom
	}
	p := sess.Meta()
	return o.seatOp(sid, app.ActClaim, index, func(r core.SeatRoom) error {
		return r.ClaimSeat(index, p)
	})
}

func (o *Orchestrator) VacateSeat(sid core.SessionID, index int) error {
	return o.seatOp(sid, app.ActVacate, index, func(r core.SeatRoom) error {
		return r.VacateSeat(index)
	})
}

func (o *Orchestrator) SetMuted(sid core.SessionID, index int, muted bool) error {
	return o.seatOp(sid, app.ActMute, index, func(r core.SeatRoom) error {
		return r.SetMuted(index, muted)
	})
}

func (o *Orchestrator) SetHost(sid core.SessionID, index int, isHost bool) error {
	return o.seatOp(sid, app.ActHost, index, func(r core.SeatRoom) error {
		return r.SetHost(index, isHost)
	})
}

func (o *Orchestrator) TriggerOverlay(sid core.SessionID, index int, value string, ttl time.Duration) error {
	return o.seatOp(sid, app.ActOverlay, index, func(r core.SeatRoom) error {
		return r.TriggerOverlay(index, value, ttl)
	})
}
