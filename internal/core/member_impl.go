package core

import "github.com/dkeye/LiveTalk/internal/domain"

// memberSession implements MemberSession by pairing meta + transport.
// Updates return a new value; sessions are never mutated in place.
type memberSession struct {
	meta   domain.Participant
	signal SignalConnection
}

func NewMemberSession(meta domain.Participant) MemberSession {
	return &memberSession{meta: meta}
}

func (m *memberSession) Meta() domain.Participant { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.signal }

func (m *memberSession) UpdateSignal(sc SignalConnection) MemberSession {
	return &memberSession{meta: m.meta, signal: sc}
}

func (m *memberSession) UpdateMeta(p domain.Participant) MemberSession {
	return &memberSession{meta: p, signal: m.signal}
}
