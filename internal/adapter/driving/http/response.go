package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/quillhub/quillhub/internal/application"
	"github.com/quillhub/quillhub/internal/domain/model"
)

// Result is a successful handler outcome: an HTTP status plus the payload
// fields merged into the response envelope next to "status": "ok".
type Result struct {
	Status  int
	Payload map[string]any
}

// OK wraps a payload in a 200 result.
func OK(payload map[string]any) *Result {
	return &Result{Status: http.StatusOK, Payload: payload}
}

// Created wraps a payload in a 201 result.
func Created(payload map[string]any) *Result {
	return &Result{Status: http.StatusCreated, Payload: payload}
}

// RequestError is a handler failure surfaced to the caller as an error
// envelope. Fields carries per-field detail when the failure is about
// specific parts of the input.
type RequestError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *RequestError) Error() string {
	return e.Message
}

func errNotFound() *RequestError {
	return &RequestError{Status: http.StatusNotFound, Message: "Not Found"}
}

func errUnauthorized() *RequestError {
	return &RequestError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
}

func errForbidden() *RequestError {
	return &RequestError{Status: http.StatusForbidden, Message: "Forbidden"}
}

func errBadRequest(message string) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: message}
}

// writeOK writes the success envelope: {"status":"ok", ...payload}.
func writeOK(w http.ResponseWriter, status int, payload map[string]any) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["status"] = "ok"
	writeJSON(w, status, body)
}

// writeError writes the error envelope: {"status":"error","message":...},
// plus "errors" when field detail exists.
func writeError(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	body := map[string]any{
		"status":  "error",
		"message": message,
	}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	writeJSON(w, status, body)
}

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"Internal Failure"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// --- JSON response representations ---

// UserResponse is the public JSON form of a user.
type UserResponse struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio,omitempty"`
	Role        string `json:"role"`
	Origin      string `json:"origin"`
	CreatedAt   string `json:"createdAt"`
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:          u.PublicID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Role:        string(u.Role),
		Origin:      u.Origin,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PublicationResponse is the JSON form of a publication. BodyHTML carries
// the rendered markdown and is populated only on the detail endpoint.
type PublicationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	Content   string `json:"content,omitempty"`
	BodyHTML  string `json:"bodyHtml,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toPublicationResponse(p model.Publication, withContent bool) PublicationResponse {
	resp := PublicationResponse{
		ID:        p.PublicID,
		Title:     p.Title,
		Abstract:  p.Abstract,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if withContent {
		resp.Content = p.Content
		resp.BodyHTML = application.RenderMarkdown(p.Content)
	}
	return resp
}

// RevisionResponse is the JSON form of one publication revision.
type RevisionResponse struct {
	Seq       int    `json:"seq"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func toRevisionResponse(r model.Revision) RevisionResponse {
	return RevisionResponse{
		Seq:       r.Seq,
		Title:     r.Title,
		Abstract:  r.Abstract,
		Content:   r.Content,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CommentResponse is the JSON form of a review comment.
type CommentResponse struct {
	ID          int64  `json:"id"`
	ThreadID    string `json:"threadId"`
	ReplyTo     *int64 `json:"replyTo,omitempty"`
	Filename    string `json:"filename,omitempty"`
	AnchorStart *int   `json:"anchorStart,omitempty"`
	AnchorEnd   *int   `json:"anchorEnd,omitempty"`
	Body        string `json:"body"`
	BodyHTML    string `json:"bodyHtml"`
	PostedAt    string `json:"postedAt"`
}

func toCommentResponse(c model.Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID,
		ThreadID:    c.ThreadID,
		ReplyTo:     c.ReplyTo,
		Filename:    c.Filename,
		AnchorStart: c.AnchorStart,
		AnchorEnd:   c.AnchorEnd,
		Body:        c.Body,
		BodyHTML:    application.RenderMarkdown(c.Body),
		PostedAt:    c.PostedAt.UTC().Format(time.RFC3339),
	}
}

// ThreadResponse is a grouped conversation thread.
type ThreadResponse struct {
	Root         CommentResponse   `json:"root"`
	Replies      []CommentResponse `json:"replies"`
	CommentCount int               `json:"commentCount"`
}

func toThreadResponse(t application.CommentThread) ThreadResponse {
	replies := make([]CommentResponse, 0, len(t.Replies))
	for _, r := range t.Replies {
		replies = append(replies, toCommentResponse(r))
	}
	return ThreadResponse{
		Root:         toCommentResponse(t.Root),
		Replies:      replies,
		CommentCount: 1 + len(t.Replies),
	}
}

// ReviewResponse is the JSON form of a review with its threads.
type ReviewResponse struct {
	ID        string           `json:"id"`
	Summary   string           `json:"summary"`
	Status    string           `json:"status"`
	Origin    string           `json:"origin"`
	Author    *UserResponse    `json:"author,omitempty"`
	Threads   []ThreadResponse `json:"threads"`
	CreatedAt string           `json:"createdAt"`
}

func toReviewResponse(d application.ReviewDetail) ReviewResponse {
	threads := make([]ThreadResponse, 0, len(d.Threads))
	for _, t := range d.Threads {
		threads = append(threads, toThreadResponse(t))
	}
	resp := ReviewResponse{
		ID:        d.Review.PublicID,
		Summary:   d.Review.Summary,
		Status:    string(d.Review.Status),
		Origin:    d.Review.Origin,
		Threads:   threads,
		CreatedAt: d.Review.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.Author != nil {
		author := toUserResponse(*d.Author)
		resp.Author = &author
	}
	return resp
}

// ActivityResponse is the JSON form of one activity record.
type ActivityResponse struct {
	Type        string         `json:"type"`
	Kind        string         `json:"kind"`
	DocumentRef string         `json:"documentRef,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   string         `json:"createdAt"`
}

func toActivityResponse(a model.Activity) ActivityResponse {
	return ActivityResponse{
		Type:        a.Type,
		Kind:        a.Kind,
		DocumentRef: a.DocumentRef,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// SupergroupResponse is the JSON form of a federation peer. Token is only
// populated on registration, the one time it is shown.
type SupergroupResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Tag       string `json:"tag"`
	BaseURL   string `json:"baseUrl"`
	Token     string `json:"token,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toSupergroupResponse(sg model.Supergroup, withToken bool) SupergroupResponse {
	resp := SupergroupResponse{
		ID:        sg.ID,
		Name:      sg.Name,
		Tag:       sg.Tag,
		BaseURL:   sg.BaseURL,
		CreatedAt: sg.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withToken {
		resp.Token = sg.Token
	}
	return resp
}
