package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/avvvet/lottery-services/internal/lottery/service"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type GameService interface {
	ListGames(ctx context.Context) ([]models.Game, error)
	CreateGame(ctx context.Context, in service.GameInput) (*models.Game, error)
	DeleteGame(ctx context.Context, id int64) (bool, error)
}

type DrawService interface {
	ListDraws(ctx context.Context) ([]models.Draw, error)
	CreateDraw(ctx context.Context, in service.DrawInput) (*models.Draw, error)
}

type Handler struct {
	games     GameService
	draws     DrawService
	tokenAuth *jwtauth.JWTAuth
}

func NewHandler(games GameService, draws DrawService) *Handler {
	return &Handler{games: games, draws: draws}
}

type Response struct {
	Error string `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func (h *Handler) ErrorResponse(w http.ResponseWriter, code int, message string) {
	h.CreateResponse(w, code, Response{Error: message})
}

// serviceError maps domain errors 1:1 to status codes. Anything else is a
// storage failure and is reported without detail.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.ErrorResponse(w, http.StatusNotFound, "Game not found")
	case errors.Is(err, service.ErrConflict):
		h.ErrorResponse(w, http.StatusConflict, "Game already exists")
	case errors.Is(err, service.ErrValidation):
		h.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Errorf("request failed: %v", err)
		h.ErrorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
