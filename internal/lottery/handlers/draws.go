package handlers

import (
	"net/http"

	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/avvvet/lottery-services/internal/lottery/service"
	log "github.com/sirupsen/logrus"
)

type createDrawRequest struct {
	GameID       *int64  `json:"game_id"`
	DrawDatetime string  `json:"draw_datetime"`
	Image        *string `json:"image"`
}

// ListDraws handles GET /api/draws
func (h *Handler) ListDraws(w http.ResponseWriter, r *http.Request) {
	draws, err := h.draws.ListDraws(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.CreateResponse(w, http.StatusOK, draws)
}

// CreateDraw handles POST /api/draws
func (h *Handler) CreateDraw(w http.ResponseWriter, r *http.Request) {
	var req createDrawRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.GameID == nil {
		h.ErrorResponse(w, http.StatusBadRequest, "game_id is required")
		return
	}
	if req.DrawDatetime == "" {
		h.ErrorResponse(w, http.StatusBadRequest, "draw_datetime is required")
		return
	}
	at, err := models.ParseLocalDateTime(req.DrawDatetime)
	if err != nil {
		h.ErrorResponse(w, http.StatusBadRequest, "draw_datetime must be an ISO-8601 date-time")
		return
	}

	draw, err := h.draws.CreateDraw(r.Context(), service.DrawInput{
		GameID:       *req.GameID,
		DrawDatetime: at,
		Image:        req.Image,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	log.Infof("draw created id=%d game_id=%d at=%s", draw.ID, draw.GameID, draw.DrawDatetime)
	h.CreateResponse(w, http.StatusCreated, draw)
}
