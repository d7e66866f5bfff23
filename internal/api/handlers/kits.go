package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"presskit/internal/core"
	"presskit/internal/types"
)

// KitReader resolves public media kits by slug. Implemented by db.ProfileRepo.
type KitReader interface {
	GetProfileBySlug(ctx context.Context, slug string) (*types.Profile, error)
}

// CollabCounter exposes the accepted-collaboration count shown on a public
// kit. Implemented by db.CollabRepo.
type CollabCounter interface {
	CountAccepted(ctx context.Context, profileID string) (int, error)
}

// KitHandler serves the public, unauthenticated media kit view.
type KitHandler struct {
	profiles KitReader
	collabs  CollabCounter
	logger   *slog.Logger
}

// NewKitHandler creates a new KitHandler.
func NewKitHandler(profiles KitReader, collabs CollabCounter, logger *slog.Logger) *KitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &KitHandler{
		profiles: profiles,
		collabs:  collabs,
		logger:   logger,
	}
}

// RegisterRoutes mounts the public kit endpoint.
func (h *KitHandler) RegisterRoutes(r chi.Router) {
	r.Get("/kits/{slug}", h.HandleGetKit)
}

// HandleGetKit handles GET /kits/{slug}. Unpublished kits are reported as
// missing so the slug namespace leaks nothing about draft profiles.
func (h *KitHandler) HandleGetKit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !core.ValidSlug(slug) {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidSlug, "invalid kit slug", nil))
		return
	}

	profile, err := h.profiles.GetProfileBySlug(r.Context(), slug)
	if err != nil {
		core.Error(w, r, kitNotFound(err))
		return
	}
	if !profile.Published {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundKit, "kit not found", nil))
		return
	}

	count, err := h.collabs.CountAccepted(r.Context(), profile.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: &types.MediaKit{
		Profile:     profile,
		CollabCount: count,
	}})
}

// kitNotFound rewrites a profile lookup miss as a kit miss; other errors pass
// through untouched.
func kitNotFound(err error) error {
	if isProfileNotFound(err) {
		return types.NewAppError(types.ErrCodeNotFoundKit, "kit not found", err)
	}
	return err
}

func isProfileNotFound(err error) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Code == types.ErrCodeNotFoundProfile
}
