package app

import (
	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

type Policy interface {
	OnBackPressure(room core.SeatRoom, member core.MemberSession) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.SeatRoom, member core.MemberSession) BackpressureAction {
	return KickMember
}

type SeatAction int

const (
	ActClaim SeatAction = iota
	ActVacate
	ActMute
	ActHost
	ActOverlay
)

func (a SeatAction) String() string {
	switch a {
	case ActClaim:
		return "claim"
	case ActVacate:
		return "vacate"
	case ActMute:
		return "mute"
	case ActHost:
		return "host"
	case ActOverlay:
		return "overlay"
	}
	return "unknown"
}

// SeatPolicy decides whether actor may perform action on seat index.
// Index is already range-checked by the caller or will be by the room.
type SeatPolicy interface {
	Allow(room core.SeatRoom, actor domain.Participant, action SeatAction, index int) bool
}

// ModeratedSeatPolicy lets everyone manage their own seat. Admins, the occupant of
// seat 0 and occupants of a host seat moderate the rest of the room.
type ModeratedSeatPolicy struct{}

func (ModeratedSeatPolicy) Allow(room core.SeatRoom, actor domain.Participant, action SeatAction, index int) bool {
	own, seated := room.SeatOf(actor.ID)
	isOwn := seated && own == index
	switch action {
	case ActClaim:
		return true
	case ActOverlay:
		return isOwn
	case ActVacate, ActMute:
		return isOwn || isModerator(room, actor)
	case ActHost:
		return isModerator(room, actor)
	}
	return false
}

func isModerator(room core.SeatRoom, actor domain.Participant) bool {
	if actor.IsAdmin {
		return true
	}
	i, ok := room.SeatOf(actor.ID)
	if !ok {
		return false
	}
	if i == 0 {
		return true
	}
	seats := room.Snapshot()
	return i < len(seats) && seats[i].Host
}
