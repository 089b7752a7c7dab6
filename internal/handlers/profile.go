package handlers

import (
	"net/http"

	"matchdeck-backend/internal/middleware"
	"matchdeck-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ProfileHandler handles profile requests
type ProfileHandler struct {
	profileService *services.ProfileService
	pushService    *services.PushService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService, pushService *services.PushService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		pushService:    pushService,
	}
}

// UploadPhotoRequest represents the request body for a photo upload URL
type UploadPhotoRequest struct {
	ContentType string `json:"content_type" validate:"omitempty,oneof=image/jpeg image/png image/heic"`
}

// RegisterDeviceRequest represents the request body for registering a push token
type RegisterDeviceRequest struct {
	Token string `json:"token" validate:"required,hexadecimal,min=32,max=200"`
}

// GetProfileDetail handles GET /api/v1/profiles/{profile_id}
func (h *ProfileHandler) GetProfileDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	profileID := chi.URLParam(r, "profile_id")
	if !validID(profileID) {
		respondServiceError(w, services.ErrProfileNotFound)
		return
	}

	detail, err := h.profileService.Detail(ctx, profileID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("profile_id", profileID).
			Msg("Failed to get profile detail")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// UploadPhoto handles POST /api/v1/profiles/me/photos
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UploadPhotoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	resp, err := h.profileService.PresignUpload(ctx, userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate pre-signed URL")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// RegisterDevice handles PUT /api/v1/devices
func (h *ProfileHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req RegisterDeviceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.pushService.RegisterDevice(ctx, userID, req.Token); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register device")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Device registered")
	w.WriteHeader(http.StatusNoContent)
}
