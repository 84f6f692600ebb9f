package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/quillhub/quillhub/internal/application"
	"github.com/quillhub/quillhub/internal/domain/model"
)

// Maximum JSON request body size.
const maxBodyBytes = 1 << 20

// AccessMode selects who may call a route. The zero value grants nobody
// access: a route that forgets to declare its access is denied, not open.
type AccessMode int

const (
	accessUndeclared AccessMode = iota
	// AccessPublic needs no credentials.
	AccessPublic
	// AccessUser needs a valid user bearer token with at least MinRole.
	AccessUser
	// AccessPeer needs a registered federation peer's bearer token.
	AccessPeer
)

// Access is a route's permission declaration. Verify, when set, runs after
// the role check and can reject with a not-found or forbidden error; it is
// where ownership rules live.
type Access struct {
	Mode    AccessMode
	MinRole model.Role
	Verify  func(ctx context.Context, rc *RequestContext) error
}

// ActivitySpec declares the audit record a route leaves behind. RefParam
// names the path parameter whose value becomes the record's document ref.
// Metadata, when set, derives the record's metadata from the validated
// request; it may perform lookups. Nil means no metadata.
type ActivitySpec struct {
	Type     string
	Kind     string
	RefParam string
	Metadata func(ctx context.Context, rc *RequestContext) map[string]any
}

// HandlerFunc is a route's business logic. It sees an authenticated,
// validated, authorized request and returns either a result or an error the
// pipeline translates into an envelope.
type HandlerFunc func(ctx context.Context, rc *RequestContext) (*Result, error)

// Route describes one API operation declaratively. Every route goes through
// the same dispatch sequence; the descriptor is the only thing that varies.
type Route struct {
	Method string
	Path   string
	// Schema validates the JSON request body. Nil means the route takes no
	// JSON body. Multipart routes parse their own payload.
	Schema    *jsonschema.Schema
	Multipart bool
	Access    Access
	Activity  *ActivitySpec
	Handle    HandlerFunc
}

// RequestContext carries the per-request state the pipeline established
// before invoking the handler.
type RequestContext struct {
	Request *http.Request
	// User is the authenticated caller; set on AccessUser routes, and on
	// AccessPublic routes when a valid token happened to be presented.
	User *model.User
	// Peer is the authenticated sister service on AccessPeer routes.
	Peer *model.Supergroup
	// Body is the decoded, schema-validated JSON body.
	Body map[string]any
	// rotated holds the fresh token pair issued when authentication fell
	// back to a refresh-token exchange.
	rotated *application.TokenPair
}

// Param returns a path parameter.
func (rc *RequestContext) Param(name string) string {
	return rc.Request.PathValue(name)
}

// Query returns a query string parameter.
func (rc *RequestContext) Query(name string) string {
	return rc.Request.URL.Query().Get(name)
}

// BodyString returns a string field from the validated body, or "".
func (rc *RequestContext) BodyString(key string) string {
	s, _ := rc.Body[key].(string)
	return s
}

// BodyInt returns a numeric field from the validated body, or 0.
func (rc *RequestContext) BodyInt(key string) int {
	f, _ := rc.Body[key].(float64)
	return int(f)
}

// Pipeline dispatches every route through the same fixed sequence:
// validate the body, authenticate, resolve permission, open an activity
// record, run the handler, settle the record, write the envelope.
type Pipeline struct {
	auth       *application.AuthService
	peers      *application.SupergroupService
	activities *application.ActivityService
	logger     *slog.Logger
}

func NewPipeline(auth *application.AuthService, peers *application.SupergroupService, activities *application.ActivityService, logger *slog.Logger) *Pipeline {
	return &Pipeline{auth: auth, peers: peers, activities: activities, logger: logger}
}

// Register mounts every route on the mux.
func (p *Pipeline) Register(mux *http.ServeMux, routes []Route) {
	for _, route := range routes {
		mux.Handle(route.Method+" "+route.Path, p.dispatch(route))
	}
}

func (p *Pipeline) dispatch(route Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rc := &RequestContext{Request: r}

		// Body validation runs before authentication: a malformed request
		// is a 400 even when no credentials were presented.
		if err := p.decodeBody(route, rc); err != nil {
			p.respondError(w, err)
			return
		}
		if err := p.authenticate(ctx, route, rc); err != nil {
			p.respondError(w, err)
			return
		}
		if rc.rotated != nil {
			w.Header().Set("X-Access-Token", rc.rotated.AccessToken)
			w.Header().Set("X-Refresh-Token", rc.rotated.RefreshToken)
		}
		if err := p.authorize(ctx, route, rc); err != nil {
			p.respondError(w, err)
			return
		}

		activity := p.beginActivity(ctx, route, rc)

		result, err := route.Handle(ctx, rc)
		if err != nil {
			p.activities.Discard(ctx, activity)
			p.respondError(w, err)
			return
		}

		p.activities.Commit(ctx, activity)
		writeOK(w, result.Status, result.Payload)
	})
}

// authenticate resolves the caller's identity per the route's access mode.
// On public routes a presented token still resolves the user so handlers can
// personalize, but a bad token is ignored rather than rejected.
func (p *Pipeline) authenticate(ctx context.Context, route Route, rc *RequestContext) error {
	token := bearerToken(rc.Request)

	switch route.Access.Mode {
	case AccessPublic:
		if token != "" {
			if user, err := p.auth.Authenticate(ctx, token); err == nil {
				rc.User = user
			}
		}
		return nil
	case AccessUser:
		if token != "" {
			user, err := p.auth.Authenticate(ctx, token)
			if err == nil {
				rc.User = user
				return nil
			}
			if !errors.Is(err, application.ErrInvalidToken) {
				return err
			}
		}
		// Absent or invalid access token: fall back to a refresh-token
		// exchange. The rotated pair is handed back in response headers.
		refresh := rc.Request.Header.Get("X-Refresh-Token")
		if refresh == "" {
			return errUnauthorized()
		}
		user, pair, err := p.auth.Refresh(ctx, refresh)
		if err != nil {
			if errors.Is(err, application.ErrInvalidToken) {
				return errUnauthorized()
			}
			return err
		}
		rc.User = user
		rc.rotated = pair
		return nil
	case AccessPeer:
		if token == "" {
			return errUnauthorized()
		}
		peer, err := p.peers.Authenticate(ctx, token)
		if err != nil {
			return err
		}
		if peer == nil {
			return errUnauthorized()
		}
		rc.Peer = peer
		return nil
	default:
		// Undeclared access denies everyone.
		return errForbidden()
	}
}

func (p *Pipeline) decodeBody(route Route, rc *RequestContext) error {
	if route.Schema == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(rc.Request.Body, maxBodyBytes))
	if err != nil {
		return errBadRequest("could not read request body")
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return errBadRequest("request body is not valid JSON")
	}
	if err := route.Schema.Validate(body); err != nil {
		return &RequestError{
			Status:  http.StatusBadRequest,
			Message: "Validation Failure",
			Fields:  schemaIssues(err),
		}
	}

	fields, ok := body.(map[string]any)
	if !ok {
		return errBadRequest("request body must be a JSON object")
	}
	rc.Body = fields
	return nil
}

func (p *Pipeline) authorize(ctx context.Context, route Route, rc *RequestContext) error {
	if route.Access.Mode == AccessUser && !rc.User.Role.AtLeast(route.Access.MinRole) {
		return errForbidden()
	}
	if route.Access.Verify != nil {
		if err := route.Access.Verify(ctx, rc); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) beginActivity(ctx context.Context, route Route, rc *RequestContext) *model.Activity {
	if route.Activity == nil || rc.User == nil {
		return nil
	}
	ref := ""
	if route.Activity.RefParam != "" {
		ref = rc.Param(route.Activity.RefParam)
	}
	var metadata map[string]any
	if route.Activity.Metadata != nil {
		metadata = route.Activity.Metadata(ctx, rc)
	}
	return p.activities.Begin(ctx, route.Activity.Type, route.Activity.Kind, rc.User.ID, ref, metadata)
}

// respondError translates a handler or pipeline error into the error
// envelope. Anything unrecognized is reported as an opaque internal failure
// and logged with its real cause.
func (p *Pipeline) respondError(w http.ResponseWriter, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		writeError(w, reqErr.Status, reqErr.Message, reqErr.Fields)
		return
	}

	var importErr *application.ImportError
	if errors.As(err, &importErr) {
		status := http.StatusBadRequest
		if importErr.Message == "Internal Failure" {
			status = http.StatusInternalServerError
		}
		writeError(w, status, importErr.Message, flattenIssues(importErr.Issues))
		return
	}

	switch {
	case errors.Is(err, application.ErrUserNotFound),
		errors.Is(err, application.ErrPublicationNotFound),
		errors.Is(err, application.ErrReviewNotFound),
		errors.Is(err, application.ErrRevisionNotFound),
		errors.Is(err, application.ErrSupergroupNotFound):
		writeError(w, http.StatusNotFound, "Not Found", nil)
	case errors.Is(err, application.ErrHandleTaken),
		errors.Is(err, application.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, application.ErrSelfFollow):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		p.logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Internal Failure", nil)
	}
}

// flattenIssues renders an import issue ledger as envelope field errors,
// keyed comments.<bundle id>.<field>.
func flattenIssues(issues application.IssueLedger) map[string][]string {
	if len(issues) == 0 {
		return nil
	}
	flat := make(map[string][]string)
	for id, fields := range issues {
		for field, messages := range fields {
			key := fmt.Sprintf("comments.%d.%s", id, field)
			flat[key] = append(flat[key], messages...)
		}
	}
	return flat
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
