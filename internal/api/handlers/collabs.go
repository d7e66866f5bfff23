package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"presskit/internal/core"
	"presskit/internal/types"
)

// CollabStore is the persistence surface for collaboration requests.
// Implemented by db.CollabRepo.
type CollabStore interface {
	Create(ctx context.Context, c *types.CollabRequest) error
	GetByID(ctx context.Context, id string) (*types.CollabRequest, error)
	ListByProfile(ctx context.Context, profileID string) ([]types.CollabRequest, error)
	UpdateStatus(ctx context.Context, id, profileID string, status types.CollabStatus, respondedAt time.Time) error
}

// CollabNotifier queues a notification when a brand submits a request.
// Implemented by queue.Publisher.
type CollabNotifier interface {
	PublishCollabSubmitted(ctx context.Context, identityID, collabID, brandName string) error
}

// SubmitCollabRequest is the body for POST /kits/{slug}/collabs.
type SubmitCollabRequest struct {
	BrandName string `json:"brand_name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Message   string `json:"message" validate:"required,max=4000"`
	Budget    string `json:"budget" validate:"max=60"`
}

// SubmitCollabResponse returns the new request ID plus the one-time manage
// token. The token is shown exactly once; only its bcrypt hash is stored.
type SubmitCollabResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ManageToken string `json:"manage_token"`
}

// CollabStatusResponse is the brand-facing view of a request. It omits the
// creator's notes and contact details.
type CollabStatusResponse struct {
	ID          string     `json:"id"`
	BrandName   string     `json:"brand_name"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// RespondCollabRequest is the body for POST /v1/collabs/{id}/status.
type RespondCollabRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined"`
}

// CollabHandler covers both sides of a collaboration request: the public
// brand-facing submission and lookup, and the creator-facing inbox.
type CollabHandler struct {
	profiles  KitReader
	collabs   CollabStore
	notifier  CollabNotifier
	validator *core.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewCollabHandler creates a new CollabHandler.
func NewCollabHandler(profiles KitReader, collabs CollabStore, notifier CollabNotifier, validator *core.Validator, logger *slog.Logger) *CollabHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = core.NewValidator(logger)
	}
	return &CollabHandler{
		profiles:  profiles,
		collabs:   collabs,
		notifier:  notifier,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterPublicRoutes mounts the brand-facing endpoints, addressed by kit
// slug and authenticated by the manage token rather than a session.
func (h *CollabHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/kits/{slug}/collabs", h.HandleSubmit)
	r.Get("/kits/{slug}/collabs/{id}", h.HandleStatusLookup)
}

// RegisterCreatorRoutes mounts the creator inbox under the authenticated
// /v1 group.
func (h *CollabHandler) RegisterCreatorRoutes(r chi.Router) {
	r.Get("/collabs", h.HandleList)
	r.Post("/collabs/{id}/status", h.HandleRespond)
}

// HandleSubmit handles POST /kits/{slug}/collabs.
func (h *CollabHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	profile, err := h.publishedKit(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var req SubmitCollabRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	token, hash, err := newManageToken()
	if err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to generate manage token", err))
		return
	}

	collab := &types.CollabRequest{
		ID:              uuid.New().String(),
		ProfileID:       profile.ID,
		BrandName:       req.BrandName,
		Email:           req.Email,
		Message:         req.Message,
		Budget:          req.Budget,
		Status:          types.CollabStatusPending,
		ManageTokenHash: hash,
		CreatedAt:       h.now().UTC(),
	}
	if err := h.collabs.Create(r.Context(), collab); err != nil {
		core.Error(w, r, err)
		return
	}

	// Notification is best-effort; the request is already persisted.
	if h.notifier != nil {
		if err := h.notifier.PublishCollabSubmitted(r.Context(), profile.ID, collab.ID, collab.BrandName); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to queue collab notification",
				"collab_id", collab.ID,
				"error", err,
			)
		}
	}

	h.logger.InfoContext(r.Context(), "collab request submitted",
		"collab_id", collab.ID,
		"profile_id", profile.ID,
	)
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: SubmitCollabResponse{
		ID:          collab.ID,
		Status:      string(collab.Status),
		ManageToken: token,
	}})
}

// HandleStatusLookup handles GET /kits/{slug}/collabs/{id}?token=...
// Every failure mode reads as "not found" so the endpoint cannot be used to
// probe which request IDs exist.
func (h *CollabHandler) HandleStatusLookup(w http.ResponseWriter, r *http.Request) {
	profile, err := h.publishedKit(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	collab, err := h.collabs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if collab.ProfileID != profile.ID {
		core.Error(w, r, collabNotFound())
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" || bcrypt.CompareHashAndPassword([]byte(collab.ManageTokenHash), []byte(token)) != nil {
		core.Error(w, r, collabNotFound())
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: CollabStatusResponse{
		ID:          collab.ID,
		BrandName:   collab.BrandName,
		Status:      string(collab.Status),
		CreatedAt:   collab.CreatedAt,
		RespondedAt: collab.RespondedAt,
	}})
}

// HandleList handles GET /v1/collabs.
func (h *CollabHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := types.GetIdentity(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthSessionMissing, "no authenticated identity", nil))
		return
	}

	collabs, err := h.collabs.ListByProfile(r.Context(), identity.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if collabs == nil {
		collabs = []types.CollabRequest{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: collabs})
}

// HandleRespond handles POST /v1/collabs/{id}/status.
func (h *CollabHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	identity, ok := types.GetIdentity(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthSessionMissing, "no authenticated identity", nil))
		return
	}

	var req RespondCollabRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.collabs.UpdateStatus(r.Context(), id, identity.ID, types.CollabStatus(req.Status), h.now().UTC()); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "collab request resolved",
		"collab_id", id,
		"status", req.Status,
	)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{
		"id":     id,
		"status": req.Status,
	}})
}

// publishedKit resolves the {slug} route param to a published profile.
func (h *CollabHandler) publishedKit(r *http.Request) (*types.Profile, error) {
	slug := chi.URLParam(r, "slug")
	if !core.ValidSlug(slug) {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidSlug, "invalid kit slug", nil)
	}
	profile, err := h.profiles.GetProfileBySlug(r.Context(), slug)
	if err != nil {
		return nil, kitNotFound(err)
	}
	if !profile.Published {
		return nil, types.NewAppError(types.ErrCodeNotFoundKit, "kit not found", nil)
	}
	return profile, nil
}

func collabNotFound() error {
	return types.NewAppError(types.ErrCodeNotFoundCollab, "collab request not found", nil)
}

// newManageToken returns a fresh plaintext token and its bcrypt hash.
func newManageToken() (token, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return token, string(hashed), nil
}
