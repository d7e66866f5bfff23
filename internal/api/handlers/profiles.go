package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"presskit/internal/core"
	"presskit/internal/types"
)

// ProfileStore is the persistence surface the profile handler needs.
// Implemented by db.ProfileRepo.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, identityID, email string) (*types.Profile, error)
	UpdateContent(ctx context.Context, p *types.Profile) error
}

// UpdateProfileRequest is the body for PUT /v1/profile. The billing fields on
// the profile are absent on purpose: only the webhook pipeline writes those.
type UpdateProfileRequest struct {
	Slug           string             `json:"slug" validate:"required,slug"`
	DisplayName    string             `json:"display_name" validate:"required,max=80"`
	Headline       string             `json:"headline" validate:"max=160"`
	Bio            string             `json:"bio" validate:"max=2000"`
	AvatarURL      string             `json:"avatar_url" validate:"omitempty,url,max=500"`
	Location       string             `json:"location" validate:"max=120"`
	Categories     []string           `json:"categories" validate:"max=8,dive,required,max=40"`
	SocialLinks    []types.SocialLink `json:"social_links" validate:"max=12,dive"`
	Services       []types.Service    `json:"services" validate:"max=20,dive"`
	PortfolioLinks []string           `json:"portfolio_links" validate:"max=20,dive,url,max=500"`
	ContactEmail   string             `json:"contact_email" validate:"omitempty,email"`
	Published      bool               `json:"published"`
}

// ProfileHandler manages the creator's own profile.
type ProfileHandler struct {
	store     ProfileStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(store ProfileStore, validator *core.Validator, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = core.NewValidator(logger)
	}
	return &ProfileHandler{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRoutes mounts the profile endpoints. Mounted under the
// authenticated /v1 group.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.HandleGetProfile)
	r.Put("/profile", h.HandleUpdateProfile)
}

// HandleGetProfile handles GET /v1/profile. The profile row is created on
// first read so a fresh signup always has something to edit.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := types.GetIdentity(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthSessionMissing, "no authenticated identity", nil))
		return
	}

	profile, err := h.store.EnsureProfile(r.Context(), identity.ID, identity.Email)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: profile})
}

// HandleUpdateProfile handles PUT /v1/profile.
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := types.GetIdentity(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthSessionMissing, "no authenticated identity", nil))
		return
	}

	var req UpdateProfileRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	profile, err := h.store.EnsureProfile(r.Context(), identity.ID, identity.Email)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	profile.Slug = req.Slug
	profile.DisplayName = strings.TrimSpace(req.DisplayName)
	profile.Headline = req.Headline
	profile.Bio = req.Bio
	profile.AvatarURL = req.AvatarURL
	profile.Location = req.Location
	profile.Categories = req.Categories
	profile.SocialLinks = req.SocialLinks
	profile.Services = req.Services
	profile.PortfolioLinks = req.PortfolioLinks
	profile.ContactEmail = req.ContactEmail
	profile.Published = req.Published

	if err := h.store.UpdateContent(r.Context(), profile); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "profile updated",
		"identity_id", identity.ID,
		"slug", profile.Slug,
		"published", profile.Published,
	)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: profile})
}
