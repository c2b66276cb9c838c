package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/game-night/internal/domain/user"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/riskibarqy/game-night/internal/usecase"
)

// Services groups the usecases exposed over HTTP.
type Services struct {
	Sessions      *usecase.SessionService
	Attendance    *usecase.AttendanceService
	Matchups      *usecase.MatchupService
	Suggestions   *usecase.PodSuggestionService
	Pods          *usecase.PodService
	Announcements *usecase.AnnouncementService
}

type Handler struct {
	sessionService      *usecase.SessionService
	attendanceService   *usecase.AttendanceService
	matchupService      *usecase.MatchupService
	suggestionService   *usecase.PodSuggestionService
	podService          *usecase.PodService
	announcementService *usecase.AnnouncementService
	logger              *logging.Logger
	validator           *validator.Validate
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		sessionService:      services.Sessions,
		attendanceService:   services.Attendance,
		matchupService:      services.Matchups,
		suggestionService:   services.Suggestions,
		podService:          services.Pods,
		announcementService: services.Announcements,
		logger:              logger,
		validator:           newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest decodes and validates a JSON body. An empty body is accepted when
// allowEmpty is set so endpoints with only optional fields can be called bare.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, out any, allowEmpty bool) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
		}
	}
	return h.validateRequest(ctx, out)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}
