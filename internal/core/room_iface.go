package core

import (
	"errors"
	"time"

	"github.com/dkeye/LiveTalk/internal/domain"
)

var (
	ErrInvalidIndex       = errors.New("invalid seat index")
	ErrSeatOccupied       = errors.New("seat occupied")
	ErrEmptySeat          = errors.New("seat is empty")
	ErrInvalidOverlay     = errors.New("invalid overlay")
	ErrInvalidParticipant = errors.New("invalid participant")
	ErrInvalidCapacity    = errors.New("invalid room capacity")
	ErrRoomNotFound       = errors.New("room not found")
)

// SeatRoom is the core-facing API of a room's seat grid.
// Implementations serialize all operations; snapshots never alias internal state.
type SeatRoom interface {
	Room() *domain.Room
	Capacity() int
	OccupiedCount() int

	ClaimSeat(index int, p domain.Participant) error
	VacateSeat(index int) error
	SetMuted(index int, muted bool) error
	SetHost(index int, isHost bool) error
	TriggerOverlay(index int, value string, ttl time.Duration) error

	// SeatOf returns the index the participant occupies, if any.
	SeatOf(id domain.ParticipantID) (int, bool)
	// Leave vacates whatever seat the participant holds.
	Leave(id domain.ParticipantID) (int, bool)

	Snapshot() []domain.SeatSlot
	OverlayActive(index int) (bool, error)
	NextOverlayExpiry() (time.Time, bool)
	// ExpireOverlays clears overlays whose lifetime has elapsed and reports their seats.
	ExpireOverlays() []int
}

type RoomInfo struct {
	ID       domain.RoomID   `json:"id"`
	Name     domain.RoomName `json:"name"`
	Capacity int             `json:"capacity"`
	Occupied int             `json:"occupied"`
}

type RoomManager interface {
	CreateRoom(name domain.RoomName, capacity int) (SeatRoom, error)
	GetRoom(id domain.RoomID) (SeatRoom, bool)
	List() []RoomInfo
	StopRoom(id domain.RoomID)
	// ExpireOverlays sweeps every room and returns the rooms whose seats changed.
	ExpireOverlays() []domain.RoomID
}
