package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

// TrackingService is the command surface behind the group routes.
type TrackingService interface {
	Track(ctx context.Context, input usecase.TrackInput) (usecase.TrackResult, error)
	Untrack(ctx context.Context, groupID, label string) (int, error)
	SetSink(ctx context.Context, groupID, sinkID string) (tracking.Group, error)
	Group(ctx context.Context, groupID string) (tracking.Group, error)
	ListGroups(ctx context.Context) ([]tracking.Group, error)
}

type Handler struct {
	trackingService TrackingService
	pollRunner      usecase.CycleRunner
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(trackingService TrackingService, pollRunner usecase.CycleRunner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		trackingService: trackingService,
		pollRunner:      pollRunner,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) decodeRequest(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(r.Context(), dst)
}
