package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/LiveTalk/internal/app/orch"
	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/gin-gonic/gin"
)

type roomHandler struct {
	orch            *orch.Orchestrator
	defaultCapacity int
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func (h *roomHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

func (h *roomHandler) create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid name"})
		return
	}
	req.Name = domain.TruncateName(req.Name)
	if req.Capacity == 0 {
		req.Capacity = h.defaultCapacity
	}
	room, err := h.orch.Rooms.CreateRoom(domain.RoomName(req.Name), req.Capacity)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCapacity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid capacity"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, core.RoomInfo{
		ID:       room.Room().ID,
		Name:     room.Room().Name,
		Capacity: room.Capacity(),
	})
}

func (h *roomHandler) seats(c *gin.Context) {
	room, ok := h.orch.Rooms.GetRoom(domain.RoomID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, orch.SeatsMessage{Type: "seats", Room: room.Room().ID, Seats: room.Snapshot()})
}

func (h *roomHandler) evict(c *gin.Context) {
	acc := currentAccount(c)
	if acc == nil || !acc.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}
	id := domain.RoomID(c.Param("id"))
	if _, ok := h.orch.Rooms.GetRoom(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	h.orch.EvictRoom(id)
	c.Status(http.StatusNoContent)
}
