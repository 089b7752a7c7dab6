package handlers

import (
	"net/http"

	"matchdeck-backend/internal/middleware"
	"matchdeck-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// DeckHandler handles discovery deck requests
type DeckHandler struct {
	sessionService *services.SessionService
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(sessionService *services.SessionService) *DeckHandler {
	return &DeckHandler{
		sessionService: sessionService,
	}
}

// GetDeck handles GET /api/v1/deck
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	view, err := h.sessionService.State(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load deck")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// StartDeck handles POST /api/v1/deck
func (h *DeckHandler) StartDeck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	view, err := h.sessionService.Start(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to start deck")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Swipe handles POST /api/v1/deck/swipe
func (h *DeckHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.SwipeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.sessionService.Swipe(ctx, userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to apply swipe")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("decision", string(result.Decision)).
		Int("cursor", result.Deck.Cursor).
		Msg("Swipe applied")

	respondJSON(w, http.StatusOK, result)
}

// Act handles POST /api/v1/deck/actions/{action}
func (h *DeckHandler) Act(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	action := chi.URLParam(r, "action")

	result, err := h.sessionService.Act(ctx, userID, action)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("action", action).
			Msg("Failed to apply deck action")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("action", action).
		Int("cursor", result.Deck.Cursor).
		Msg("Deck action applied")

	respondJSON(w, http.StatusOK, result)
}

// GetMatches handles GET /api/v1/deck/matches
func (h *DeckHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	matches, err := h.sessionService.Matches(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get matches")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"total":   len(matches),
	})
}
