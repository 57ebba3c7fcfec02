package domain

import (
	"strings"
	"time"
)

type OverlayKind string

const (
	OverlayAsset  OverlayKind = "asset"
	OverlaySymbol OverlayKind = "symbol"
)

// Overlay is a transient decoration on a seat. It is active until ExpiresAt.
type Overlay struct {
	Value     string      `json:"value"`
	Kind      OverlayKind `json:"kind"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// ClassifyOverlay tells animated asset references (URLs, data URIs) from inline tokens.
func ClassifyOverlay(v string) OverlayKind {
	if strings.HasPrefix(v, "http") || strings.HasPrefix(v, "data:") {
		return OverlayAsset
	}
	return OverlaySymbol
}

func (o *Overlay) ActiveAt(now time.Time) bool {
	return o != nil && now.Before(o.ExpiresAt)
}

// SeatSlot is one position of a room. Host belongs to the slot, not to the occupant.
type SeatSlot struct {
	Index    int          `json:"index"`
	Occupant *Participant `json:"occupant"`
	Host     bool         `json:"host"`
	Muted    bool         `json:"muted"`
	Overlay  *Overlay     `json:"overlay"`
}

func (s SeatSlot) Occupied() bool { return s.Occupant != nil }

// Speaking reports the live-mic state shown for an occupied, unmuted seat.
func (s SeatSlot) Speaking() bool { return s.Occupant != nil && !s.Muted }
