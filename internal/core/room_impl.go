package core

import (
	"sync"
	"time"

	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/rs/zerolog/log"
)

type seat struct {
	occupant *domain.Participant
	host     bool
	muted    bool
	overlay  *domain.Overlay
}

func (s *seat) clear() {
	s.occupant = nil
	s.host = false
	s.muted = false
	s.overlay = nil
}

// seatRoom is a threadsafe in-memory seat grid.
// Capacity is fixed at construction.
type seatRoom struct {
	room   *domain.Room
	now    func() time.Time
	mu     sync.RWMutex
	seats  []seat
	byUser map[domain.ParticipantID]int
}

type Option func(*seatRoom)

// WithClock replaces time.Now, mostly for tests driving overlay expiry.
func WithClock(now func() time.Time) Option {
	return func(r *seatRoom) { r.now = now }
}

func NewSeatRoom(room *domain.Room, opts ...Option) (SeatRoom, error) {
	if room == nil || room.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	r := &seatRoom{
		room:   room,
		now:    time.Now,
		seats:  make([]seat, room.Capacity),
		byUser: make(map[domain.ParticipantID]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *seatRoom) Room() *domain.Room { return r.room }

func (r *seatRoom) Capacity() int { return len(r.seats) }

func (r *seatRoom) OccupiedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *seatRoom) valid(index int) bool {
	return index >= 0 && index < len(r.seats)
}

func (r *seatRoom) ClaimSeat(index int, p domain.Participant) error {
	if !r.valid(index) {
		return ErrInvalidIndex
	}
	if p.ID == "" {
		return ErrInvalidParticipant
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.seats[index]
	if s.occupant != nil {
		if s.occupant.ID != p.ID {
			return ErrSeatOccupied
		}
		cp := p
		s.occupant = &cp
		return nil
	}
	if prev, ok := r.byUser[p.ID]; ok {
		r.seats[prev].clear()
		log.Debug().Str("module", "core.seats").Str("room", string(r.room.ID)).Str("user", string(p.ID)).Int("from", prev).Int("to", index).Msg("seat moved")
	}
	cp := p
	s.occupant = &cp
	s.muted = false
	s.overlay = nil
	r.byUser[p.ID] = index
	log.Info().Str("module", "core.seats").Str("room", string(r.room.ID)).Str("user", string(p.ID)).Int("seat", index).Msg("seat claimed")
	return nil
}

func (r *seatRoom) VacateSeat(index int) error {
	if !r.valid(index) {
		return ErrInvalidIndex
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vacateLocked(index)
	return nil
}

func (r *seatRoom) vacateLocked(index int) {
	s := &r.seats[index]
	if s.occupant != nil {
		delete(r.byUser, s.occupant.ID)
		log.Info().Str("module", "core.seats").Str("room", string(r.room.ID)).Str("user", string(s.occupant.ID)).Int("seat", index).Msg("seat vacated")
	}
	s.clear()
}

func (r *seatRoom) SetMuted(index int, muted bool) error {
	if !r.valid(index) {
		return ErrInvalidIndex
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &r.seats[index]
	if s.occupant == nil {
		return ErrEmptySeat
	}
	s.muted = muted
	return nil
}

func (r *seatRoom) SetHost(index int, isHost bool) error {
	if !r.valid(index) {
		return ErrInvalidIndex
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seats[index].host = isHost
	return nil
}

func (r *seatRoom) TriggerOverlay(index int, value string, ttl time.Duration) error {
	if !r.valid(index) {
		return ErrInvalidIndex
	}
	if value == "" || ttl <= 0 {
		return ErrInvalidOverlay
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &r.seats[index]
	if s.occupant == nil {
		return ErrEmptySeat
	}
	s.overlay = &domain.Overlay{
		Value:     value,
		Kind:      domain.ClassifyOverlay(value),
		ExpiresAt: r.now().Add(ttl),
	}
	return nil
}

func (r *seatRoom) SeatOf(id domain.ParticipantID) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byUser[id]
	return i, ok
}

func (r *seatRoom) Leave(id domain.ParticipantID) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byUser[id]
	if !ok {
		return 0, false
	}
	r.vacateLocked(i)
	return i, true
}

func (r *seatRoom) Snapshot() []domain.SeatSlot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := r.now()
	out := make([]domain.SeatSlot, len(r.seats))
	for i, s := range r.seats {
		slot := domain.SeatSlot{Index: i, Host: s.host, Muted: s.muted}
		if s.occupant != nil {
			p := *s.occupant
			slot.Occupant = &p
		}
		if s.overlay.ActiveAt(now) {
			o := *s.overlay
			slot.Overlay = &o
		}
		out[i] = slot
	}
	return out
}

func (r *seatRoom) OverlayActive(index int) (bool, error) {
	if !r.valid(index) {
		return false, ErrInvalidIndex
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seats[index].overlay.ActiveAt(r.now()), nil
}

// NextOverlayExpiry returns the earliest deadline among overlays still active.
// Overlays already past due but not yet swept are skipped.
func (r *seatRoom) NextOverlayExpiry() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := r.now()
	var next time.Time
	found := false
	for _, s := range r.seats {
		if !s.overlay.ActiveAt(now) {
			continue
		}
		if !found || s.overlay.ExpiresAt.Before(next) {
			next = s.overlay.ExpiresAt
			found = true
		}
	}
	return next, found
}

func (r *seatRoom) ExpireOverlays() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var expired []int
	for i := range r.seats {
		s := &r.seats[i]
		if s.overlay != nil && !s.overlay.ActiveAt(now) {
			s.overlay = nil
			expired = append(expired, i)
		}
	}
	if len(expired) > 0 {
		log.Debug().Str("module", "core.seats").Str("room", string(r.room.ID)).Ints("seats", expired).Msg("overlays expired")
	}
	return expired
}
