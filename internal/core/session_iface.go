package core

import "github.com/dkeye/LiveTalk/internal/domain"

type SessionID string

// MemberSession binds the participant snapshot and its transport endpoint.
// This is what the registry stores and a room fans out to.
type MemberSession interface {
	Meta() domain.Participant
	Signal() SignalConnection
	UpdateSignal(SignalConnection) MemberSession
	UpdateMeta(domain.Participant) MemberSession
}
