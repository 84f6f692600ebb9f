package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/quillhub/quillhub/internal/application"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auth         *application.AuthService
	users        *application.UserService
	publications *application.PublicationService
	reviews      *application.ReviewService
	social       *application.SocialService
	activities   *application.ActivityService
	imports      *application.ImportService
	federation   *application.FederationService
	supergroups  *application.SupergroupService
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	users *application.UserService,
	publications *application.PublicationService,
	reviews *application.ReviewService,
	social *application.SocialService,
	activities *application.ActivityService,
	imports *application.ImportService,
	federation *application.FederationService,
	supergroups *application.SupergroupService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:         auth,
		users:        users,
		publications: publications,
		reviews:      reviews,
		social:       social,
		activities:   activities,
		imports:      imports,
		federation:   federation,
		supergroups:  supergroups,
		logger:       logger,
	}
}

// NewServeMux creates an http.Handler with every route dispatched through
// the request pipeline, wrapped with gzip, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	pipeline := NewPipeline(h.auth, h.supergroups, h.activities, logger)
	pipeline.Register(mux, h.routes())

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return gzhttp.GzipHandler(wrapped)
}

// Health reports service liveness.
func (h *Handler) Health(_ context.Context, _ *RequestContext) (*Result, error) {
	return OK(map[string]any{"time": time.Now().UTC().Format(time.RFC3339)}), nil
}
