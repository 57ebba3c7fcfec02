package orch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dkeye/LiveTalk/internal/app"
	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/dkeye/LiveTalk/internal/metrics"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Seats    app.SeatPolicy

	// roomOps holds one *sync.Mutex per room. Seat policy checks and the
	// mutation they guard run under it as one step.
	roomOps sync.Map
}

func (o *Orchestrator) roomLock(id domain.RoomID) *sync.Mutex {
	mu, _ := o.roomOps.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// SeatsMessage is pushed to every member of a room after its seats change.
type SeatsMessage struct {
	Type  string            `json:"type"`
	Room  domain.RoomID     `json:"room"`
	Seats []domain.SeatSlot `json:"seats"`
}

func SeatsFrame(room core.SeatRoom) (core.Frame, error) {
	return json.Marshal(SeatsMessage{
		Type:  "seats",
		Room:  room.Room().ID,
		Seats: room.Snapshot(),
	})
}

// Publish fans data out to everyone in the room and applies the backpressure policy.
func (o *Orchestrator) Publish(roomID domain.RoomID, data core.Frame) {
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return
	}
	sent := 0
	var dropped []core.SessionID
	for _, snap := range o.Registry.MembersOfRoom(roomID) {
		sc := snap.Session.Signal()
		if sc == nil {
			continue
		}
		if err := sc.TrySend(data); err != nil {
			if o.Policy != nil && o.Policy.OnBackPressure(room, snap.Session) == app.KickMember {
				dropped = append(dropped, snap.SID)
			}
			continue
		}
		sent++
	}
	log.Debug().Str("module", "orch").Str("room", string(roomID)).Int("sent_to", sent).Int("dropped", len(dropped)).Msg("publish result")
	for _, sid := range dropped {
		o.KickBySID(sid)
	}
}

func (o *Orchestrator) BroadcastSeats(roomID domain.RoomID) {
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return
	}
	frame, err := SeatsFrame(room)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode seats")
		return
	}
	o.Publish(roomID, frame)
}

// SweepOverlays clears expired overlays in all rooms and pushes the new seat state.
func (o *Orchestrator) SweepOverlays() {
	for _, id := range o.Rooms.ExpireOverlays() {
		metrics.OverlaysExpired.Inc()
		o.BroadcastSeats(id)
	}
}

func (o *Orchestrator) RunOverlaySweeper(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("overlay sweeper stopped")
			return
		case <-t.C:
			o.SweepOverlays()
		}
	}
}
