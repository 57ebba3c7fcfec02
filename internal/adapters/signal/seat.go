package signal

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/LiveTalk/internal/app/orch"
	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/metrics"
	"github.com/rs/zerolog/log"
)

type seatPayload struct {
	Type  string `json:"type"`
	Seat  *int   `json:"seat"`
	Muted bool   `json:"muted"`
	Host  bool   `json:"host"`
	Value string `json:"value"`
	TTLMs int64  `json:"ttl_ms"`
}

func (ctl *SignalWSController) decodeSeat(conn core.SignalConnection, data []byte) (seatPayload, bool) {
	var p seatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Seat == nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad seat payload")
		ctl.sendError(conn, "bad_payload")
		return p, false
	}
	return p, true
}

func (ctl *SignalWSController) reply(conn core.SignalConnection, op string, err error) {
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("op", op).Msg("seat op rejected")
		ctl.sendError(conn, errorCode(err))
	}
}

func (ctl *SignalWSController) handleClaim(sid core.SessionID, conn core.SignalConnection, data []byte) {
	p, ok := ctl.decodeSeat(conn, data)
	if !ok {
		return
	}
	ctl.reply(conn, "claim", ctl.Orch.ClaimSeat(sid, *p.Seat))
}

func (ctl *SignalWSController) handleVacate(sid core.SessionID, conn core.SignalConnection, data []byte) {
	p, ok := ctl.decodeSeat(conn, data)
	if !ok {
		return
	}
	ctl.reply(conn, "vacate", ctl.Orch.VacateSeat(sid, *p.Seat))
}

func (ctl *SignalWSController) handleMute(sid core.SessionID, conn core.SignalConnection, data []byte) {
	p, ok := ctl.decodeSeat(conn, data)
	if !ok {
		return
	}
	ctl.reply(conn, "mute", ctl.Orch.SetMuted(sid, *p.Seat, p.Muted))
}

func (ctl *SignalWSController) handleHost(sid core.SessionID, conn core.SignalConnection, data []byte) {
	p, ok := ctl.decodeSeat(conn, data)
	if !ok {
		return
	}
	ctl.reply(conn, "host", ctl.Orch.SetHost(sid, *p.Seat, p.Host))
}

func (ctl *SignalWSController) handleOverlay(sid core.SessionID, conn core.SignalConnection, data []byte) {
	p, ok := ctl.decodeSeat(conn, data)
	if !ok {
		return
	}
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		ctl.sendError(conn, errorCode(orch.ErrNotInRoom))
		return
	}
	if !ctl.overlays.Allow(sess.Meta().ID) {
		metrics.RateLimited.WithLabelValues("overlay").Inc()
		ctl.sendError(conn, "rate_limited")
		return
	}
	ctl.reply(conn, "overlay", ctl.Orch.TriggerOverlay(sid, *p.Seat, p.Value, ctl.overlayTTL(p.TTLMs)))
}

// overlayTTL applies the default when unset and caps at the configured maximum.
func (ctl *SignalWSController) overlayTTL(ms int64) time.Duration {
	if ms <= 0 {
		return ctl.opts.OverlayTTL
	}
	ttl := time.Duration(ms) * time.Millisecond
	if ttl > ctl.opts.MaxOverlayTTL {
		return ctl.opts.MaxOverlayTTL
	}
	return ttl
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, core.ErrSeatOccupied):
		return "seat_occupied"
	case errors.Is(err, core.ErrEmptySeat):
		return "empty_seat"
	case errors.Is(err, core.ErrInvalidIndex):
		return "invalid_index"
	case errors.Is(err, core.ErrInvalidOverlay):
		return "invalid_overlay"
	case errors.Is(err, core.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, orch.ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, orch.ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}
