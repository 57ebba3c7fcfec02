package app

import (
	"sort"
	"sync"

	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultCapacity = 8

type RoomManagerImpl struct {
	mu          sync.RWMutex
	rooms       map[domain.RoomID]core.SeatRoom
	maxCapacity int
	opts        []core.Option
}

// NewRoomManager builds a manager whose rooms accept at most maxCapacity seats.
// opts are forwarded to every seat room it creates.
func NewRoomManager(maxCapacity int, opts ...core.Option) core.RoomManager {
	if maxCapacity <= 0 {
		maxCapacity = DefaultCapacity
	}
	return &RoomManagerImpl{
		rooms:       make(map[domain.RoomID]core.SeatRoom),
		maxCapacity: maxCapacity,
		opts:        opts,
	}
}

func (f *RoomManagerImpl) CreateRoom(name domain.RoomName, capacity int) (core.SeatRoom, error) {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < 0 || capacity > f.maxCapacity {
		return nil, core.ErrInvalidCapacity
	}
	room, err := core.NewSeatRoom(&domain.Room{
		ID:       domain.RoomID(uuid.NewString()),
		Name:     name,
		Capacity: capacity,
	}, f.opts...)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.rooms[room.Room().ID] = room
	f.mu.Unlock()
	log.Info().Str("module", "app.rooms").Str("room", string(room.Room().ID)).Str("name", string(name)).Int("capacity", capacity).Msg("room created")
	return room, nil
}

func (f *RoomManagerImpl) GetRoom(id domain.RoomID) (core.SeatRoom, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{
			ID:       id,
			Name:     r.Room().Name,
			Capacity: r.Capacity(),
			Occupied: r.OccupiedCount(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (f *RoomManagerImpl) StopRoom(id domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room stopped")
}

func (f *RoomManagerImpl) ExpireOverlays() []domain.RoomID {
	f.mu.RLock()
	rooms := make([]core.SeatRoom, 0, len(f.rooms))
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	f.mu.RUnlock()

	var changed []domain.RoomID
	for _, r := range rooms {
		if len(r.ExpireOverlays()) > 0 {
			changed = append(changed, r.Room().ID)
		}
	}
	return changed
}
