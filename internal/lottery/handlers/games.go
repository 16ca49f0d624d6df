package handlers

import (
	"net/http"
	"strconv"

	"github.com/avvvet/lottery-services/internal/lottery/service"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

// ListGames handles GET /api/games
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.ListGames(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.CreateResponse(w, http.StatusOK, games)
}

// CreateGame handles POST /api/games
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req service.GameInput
	if err := decodeBody(w, r, &req); err != nil {
		h.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	game, err := h.games.CreateGame(r.Context(), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	log.Infof("game created id=%d name=%q", game.ID, game.Name)
	h.CreateResponse(w, http.StatusCreated, game)
}

// DeleteGame handles DELETE /api/games/{gameID}
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		h.ErrorResponse(w, http.StatusBadRequest, "game_id must be an integer")
		return
	}

	deleted, err := h.games.DeleteGame(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if !deleted {
		h.ErrorResponse(w, http.StatusNotFound, "Game not found")
		return
	}

	log.Infof("game deleted id=%d", id)
	w.WriteHeader(http.StatusNoContent)
}
