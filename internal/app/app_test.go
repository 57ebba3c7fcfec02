package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
)

func newRoom(t *testing.T, m core.RoomManager) core.SeatRoom {
	t.Helper()
	r, err := m.CreateRoom("lounge", 8)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	return r
}

func TestRoomManagerCapacity(t *testing.T) {
	m := NewRoomManager(10)
	if _, err := m.CreateRoom("big", 11); !errors.Is(err, core.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if _, err := m.CreateRoom("neg", -1); !errors.Is(err, core.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	r, err := m.CreateRoom("default", 0)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if r.Capacity() != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, r.Capacity())
	}
	if got, ok := m.GetRoom(r.Room().ID); !ok || got != r {
		t.Fatalf("GetRoom did not return the created room")
	}
	m.StopRoom(r.Room().ID)
	if _, ok := m.GetRoom(r.Room().ID); ok {
		t.Fatalf("room still present after StopRoom")
	}
}

func TestRoomManagerListSorted(t *testing.T) {
	m := NewRoomManager(8)
	for _, n := range []domain.RoomName{"zeta", "alpha", "mid"} {
		if _, err := m.CreateRoom(n, 4); err != nil {
			t.Fatalf("CreateRoom: %v", err)
		}
	}
	list := m.List()
	if len(list) != 3 || list[0].Name != "alpha" || list[2].Name != "zeta" {
		t.Fatalf("unexpected list order: %+v", list)
	}
	if list[0].Capacity != 4 || list[0].Occupied != 0 {
		t.Fatalf("unexpected info: %+v", list[0])
	}
}

func TestRoomManagerExpireOverlays(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewRoomManager(8, core.WithClock(func() time.Time { return now }))
	a := newRoom(t, m)
	b := newRoom(t, m)
	_ = a.ClaimSeat(0, domain.Participant{ID: "u1"})
	_ = a.TriggerOverlay(0, "🔥", time.Second)
	_ = b.ClaimSeat(0, domain.Participant{ID: "u2"})
	_ = b.TriggerOverlay(0, "🎉", time.Minute)

	if changed := m.ExpireOverlays(); len(changed) != 0 {
		t.Fatalf("nothing should expire yet, got %v", changed)
	}
	now = now.Add(2 * time.Second)
	changed := m.ExpireOverlays()
	if len(changed) != 1 || changed[0] != a.Room().ID {
		t.Fatalf("expected only room a to change, got %v", changed)
	}
}

func TestModeratedSeatPolicy(t *testing.T) {
	m := NewRoomManager(8)
	r := newRoom(t, m)
	host := domain.Participant{ID: "host"}
	guest := domain.Participant{ID: "guest"}
	admin := domain.Participant{ID: "admin", IsAdmin: true}
	other := domain.Participant{ID: "other"}
	_ = r.ClaimSeat(0, host)
	_ = r.ClaimSeat(3, guest)
	_ = r.ClaimSeat(5, other)
	p := ModeratedSeatPolicy{}

	cases := []struct {
		name   string
		actor  domain.Participant
		action SeatAction
		index  int
		want   bool
	}{
		{"anyone claims", guest, ActClaim, 6, true},
		{"own overlay", guest, ActOverlay, 3, true},
		{"overlay on other seat", guest, ActOverlay, 5, false},
		{"admin overlay elsewhere", admin, ActOverlay, 5, false},
		{"mute self", guest, ActMute, 3, true},
		{"guest mutes other", guest, ActMute, 5, false},
		{"seat 0 mutes other", host, ActMute, 5, true},
		{"admin vacates other", admin, ActVacate, 5, true},
		{"guest sets host", guest, ActHost, 3, false},
		{"seat 0 sets host", host, ActHost, 3, true},
	}
	for _, c := range cases {
		if got := p.Allow(r, c.actor, c.action, c.index); got != c.want {
			t.Fatalf("%s: Allow = %v, want %v", c.name, got, c.want)
		}
	}

	// a host flag on the guest's seat promotes them to moderator
	_ = r.SetHost(3, true)
	if !p.Allow(r, guest, ActVacate, 5) {
		t.Fatalf("host-seat occupant should moderate")
	}
}

type nopSignal struct{}

func (nopSignal) TrySend(core.Frame) error { return nil }
func (nopSignal) Close()                   {}

func TestRegistryRoomTracking(t *testing.T) {
	reg := NewRegistry()
	canceled := false
	sess := core.NewMemberSession(domain.Participant{ID: "u1", Name: "one"}).UpdateSignal(nopSignal{})
	reg.BindSignal("s1", sess, func() { canceled = true })

	if _, _, ok := reg.RoomOf("s1"); ok {
		t.Fatalf("new session should not be in a room")
	}
	if !reg.UpdateRoom("s1", "r1") {
		t.Fatalf("UpdateRoom failed")
	}
	if id, _, ok := reg.RoomOf("s1"); !ok || id != "r1" {
		t.Fatalf("RoomOf = %s %v", id, ok)
	}
	if got := reg.MembersOfRoom("r1"); len(got) != 1 || got[0].SID != "s1" {
		t.Fatalf("unexpected members %+v", got)
	}
	if got := reg.RoomMates("s1"); len(got) != 0 {
		t.Fatalf("expected no room mates, got %+v", got)
	}
	if !reg.UpdateMeta("s1", domain.Participant{ID: "u1", Name: "renamed"}) {
		t.Fatalf("UpdateMeta failed")
	}
	s, _ := reg.GetSession("s1")
	if s.Meta().Name != "renamed" || s.Signal() == nil {
		t.Fatalf("meta update lost state: %+v", s.Meta())
	}

	// rebinding keeps the room and cancels the previous connection
	reg.BindSignal("s1", sess, func() {})
	if !canceled {
		t.Fatalf("previous session not canceled")
	}
	if id, _, ok := reg.RoomOf("s1"); !ok || id != "r1" {
		t.Fatalf("room lost on rebind: %s %v", id, ok)
	}

	reg.RemoveRoom("s1")
	if _, _, ok := reg.RoomOf("s1"); ok {
		t.Fatalf("room association not removed")
	}
	reg.Unbind("s1")
	if _, ok := reg.GetSession("s1"); ok {
		t.Fatalf("session not unbound")
	}
	if reg.Cancel("s1") {
		t.Fatalf("Cancel on unknown sid should report false")
	}
}

func TestRegistryOwns(t *testing.T) {
	reg := NewRegistry()
	first := &countingSignal{}
	second := &countingSignal{}
	base := core.NewMemberSession(domain.Participant{ID: "u1"})
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	reg.BindSignal("s1", base.UpdateSignal(first), cancel)
	reg.BindSignal("s1", base.UpdateSignal(second), cancel)
	if reg.Owns("s1", first) {
		t.Fatalf("stale connection still owns the session")
	}
	if !reg.Owns("s1", second) {
		t.Fatalf("live connection should own the session")
	}
}

type countingSignal struct{ n int }

func (c *countingSignal) TrySend(core.Frame) error { c.n++; return nil }
func (c *countingSignal) Close()                   {}
