package httphandler

import (
	"context"
	"net/http"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// Request body schemas, compiled once at startup.
var (
	registerSchema = compileSchema("register", `{
		"type": "object",
		"required": ["handle", "email", "password"],
		"additionalProperties": false,
		"properties": {
			"handle": {"type": "string", "minLength": 3, "maxLength": 32, "pattern": "^[a-zA-Z0-9_-]+$"},
			"email": {"type": "string", "minLength": 3, "maxLength": 254, "pattern": "^[^@\\s]+@[^@\\s]+$"},
			"displayName": {"type": "string", "maxLength": 120},
			"password": {"type": "string", "minLength": 8, "maxLength": 128}
		}
	}`)

	loginSchema = compileSchema("login", `{
		"type": "object",
		"required": ["email", "password"],
		"additionalProperties": false,
		"properties": {
			"email": {"type": "string", "minLength": 1},
			"password": {"type": "string", "minLength": 1}
		}
	}`)

	refreshSchema = compileSchema("refresh", `{
		"type": "object",
		"required": ["refreshToken"],
		"additionalProperties": false,
		"properties": {
			"refreshToken": {"type": "string", "minLength": 1}
		}
	}`)

	profileSchema = compileSchema("profile", `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"displayName": {"type": "string", "maxLength": 120},
			"bio": {"type": "string", "maxLength": 4000}
		}
	}`)

	roleSchema = compileSchema("role", `{
		"type": "object",
		"required": ["role"],
		"additionalProperties": false,
		"properties": {
			"role": {"type": "string", "enum": ["default", "moderator", "administrator"]}
		}
	}`)

	publicationSchema = compileSchema("publication", `{
		"type": "object",
		"required": ["title", "content"],
		"additionalProperties": false,
		"properties": {
			"title": {"type": "string", "minLength": 1, "maxLength": 200},
			"abstract": {"type": "string", "maxLength": 4000},
			"content": {"type": "string", "minLength": 1}
		}
	}`)

	publicationStatusSchema = compileSchema("publication-status", `{
		"type": "object",
		"required": ["status"],
		"additionalProperties": false,
		"properties": {
			"status": {"type": "string", "enum": ["published", "retracted"]}
		}
	}`)

	reviewSchema = compileSchema("review", `{
		"type": "object",
		"required": ["summary"],
		"additionalProperties": false,
		"properties": {
			"summary": {"type": "string", "minLength": 1, "maxLength": 10000}
		}
	}`)

	commentSchema = compileSchema("comment", `{
		"type": "object",
		"required": ["body"],
		"additionalProperties": false,
		"properties": {
			"body": {"type": "string", "minLength": 1, "maxLength": 20000},
			"filename": {"type": "string", "maxLength": 500},
			"anchor": {
				"type": "object",
				"required": ["start", "end"],
				"additionalProperties": false,
				"properties": {
					"start": {"type": "integer", "minimum": 1},
					"end": {"type": "integer", "minimum": 1}
				}
			},
			"replyTo": {"type": "integer", "minimum": 1}
		}
	}`)

	supergroupSchema = compileSchema("supergroup", `{
		"type": "object",
		"required": ["name", "tag", "baseUrl"],
		"additionalProperties": false,
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 120},
			"tag": {"type": "string", "minLength": 2, "maxLength": 32, "pattern": "^[a-z0-9-]+$"},
			"baseUrl": {"type": "string", "minLength": 1, "maxLength": 500, "pattern": "^https?://"}
		}
	}`)

	// bundleSchema validates the bundle part of a federation import.
	bundleSchema = compileSchema("bundle", `{
		"type": "object",
		"required": ["publicationId", "summary", "author", "comments"],
		"additionalProperties": false,
		"properties": {
			"publicationId": {"type": "string", "minLength": 1},
			"summary": {"type": "string", "maxLength": 10000},
			"author": {"$ref": "#/$defs/author"},
			"comments": {
				"type": "array",
				"maxItems": 1000,
				"items": {
					"type": "object",
					"required": ["id", "contents", "author", "postedAt"],
					"additionalProperties": false,
					"properties": {
						"id": {"type": "integer"},
						"replying": {"type": "integer"},
						"filename": {"type": "string", "maxLength": 500},
						"anchor": {
							"type": "object",
							"required": ["start", "end"],
							"additionalProperties": false,
							"properties": {
								"start": {"type": "integer"},
								"end": {"type": "integer"}
							}
						},
						"contents": {"type": "string", "maxLength": 20000},
						"author": {"$ref": "#/$defs/author"},
						"postedAt": {"type": "string", "minLength": 1}
					}
				}
			}
		},
		"$defs": {
			"author": {
				"type": "object",
				"required": ["ref", "service"],
				"additionalProperties": false,
				"properties": {
					"ref": {"type": "string", "minLength": 1},
					"service": {"type": "string", "minLength": 1},
					"handle": {"type": "string"},
					"displayName": {"type": "string"}
				}
			}
		}
	}`)
)

// routes is the full API surface, one descriptor per operation.
func (h *Handler) routes() []Route {
	public := Access{Mode: AccessPublic}
	user := Access{Mode: AccessUser, MinRole: model.RoleDefault}
	admin := Access{Mode: AccessUser, MinRole: model.RoleAdministrator}
	peer := Access{Mode: AccessPeer}

	ownPublication := Access{Mode: AccessUser, MinRole: model.RoleDefault, Verify: h.verifyPublicationOwner}
	ownReview := Access{Mode: AccessUser, MinRole: model.RoleDefault, Verify: h.verifyReviewAuthor}

	return []Route{
		{Method: http.MethodGet, Path: "/api/v1/health", Access: public, Handle: h.Health},

		// Auth.
		{Method: http.MethodPost, Path: "/api/v1/auth/register", Schema: registerSchema, Access: public, Handle: h.Register},
		{Method: http.MethodPost, Path: "/api/v1/auth/login", Schema: loginSchema, Access: public, Handle: h.Login},
		{Method: http.MethodPost, Path: "/api/v1/auth/refresh", Schema: refreshSchema, Access: public, Handle: h.Refresh},

		// Users.
		{Method: http.MethodGet, Path: "/api/v1/me", Access: user, Handle: h.Me},
		{Method: http.MethodPatch, Path: "/api/v1/me", Schema: profileSchema, Access: user,
			Activity: &ActivitySpec{Type: "user", Kind: "update"}, Handle: h.UpdateProfile},
		{Method: http.MethodGet, Path: "/api/v1/me/activities", Access: user, Handle: h.MyActivities},
		{Method: http.MethodGet, Path: "/api/v1/users/{handle}", Access: public, Handle: h.GetUser},
		{Method: http.MethodGet, Path: "/api/v1/users/{handle}/publications", Access: public, Handle: h.ListUserPublications},
		{Method: http.MethodPost, Path: "/api/v1/users/{handle}/role", Schema: roleSchema, Access: admin,
			Activity: &ActivitySpec{Type: "user", Kind: "role", RefParam: "handle",
				Metadata: func(_ context.Context, rc *RequestContext) map[string]any {
					return map[string]any{"role": rc.BodyString("role")}
				}}, Handle: h.SetRole},

		// Publications.
		{Method: http.MethodGet, Path: "/api/v1/publications", Access: public, Handle: h.ListPublications},
		{Method: http.MethodPost, Path: "/api/v1/publications", Schema: publicationSchema, Access: user,
			Activity: &ActivitySpec{Type: "publication", Kind: "create"}, Handle: h.CreatePublication},
		{Method: http.MethodGet, Path: "/api/v1/publications/{id}", Access: public, Handle: h.GetPublication},
		{Method: http.MethodPatch, Path: "/api/v1/publications/{id}", Schema: publicationSchema, Access: ownPublication,
			Activity: &ActivitySpec{Type: "publication", Kind: "revise", RefParam: "id"}, Handle: h.RevisePublication},
		{Method: http.MethodPost, Path: "/api/v1/publications/{id}/status", Schema: publicationStatusSchema, Access: ownPublication,
			Activity: &ActivitySpec{Type: "publication", Kind: "status", RefParam: "id",
				Metadata: func(_ context.Context, rc *RequestContext) map[string]any {
					return map[string]any{"status": rc.BodyString("status")}
				}}, Handle: h.SetPublicationStatus},
		{Method: http.MethodDelete, Path: "/api/v1/publications/{id}", Access: ownPublication,
			Activity: &ActivitySpec{Type: "publication", Kind: "delete", RefParam: "id"}, Handle: h.DeletePublication},
		{Method: http.MethodGet, Path: "/api/v1/publications/{id}/revisions", Access: public, Handle: h.ListRevisions},

		// Reviews and comments.
		{Method: http.MethodGet, Path: "/api/v1/publications/{id}/reviews", Access: public, Handle: h.ListReviews},
		{Method: http.MethodGet, Path: "/api/v1/reviews/{id}", Access: public, Handle: h.GetReview},
		{Method: http.MethodPost, Path: "/api/v1/publications/{id}/reviews", Schema: reviewSchema, Access: user,
			Activity: &ActivitySpec{Type: "review", Kind: "create", RefParam: "id"}, Handle: h.CreateReview},
		{Method: http.MethodPost, Path: "/api/v1/reviews/{id}/complete", Access: ownReview,
			Activity: &ActivitySpec{Type: "review", Kind: "complete", RefParam: "id"}, Handle: h.CompleteReview},
		{Method: http.MethodPost, Path: "/api/v1/reviews/{id}/comments", Schema: commentSchema, Access: user,
			Activity: &ActivitySpec{Type: "comment", Kind: "create", RefParam: "id"}, Handle: h.AddComment},

		// Social graph.
		{Method: http.MethodPut, Path: "/api/v1/users/{handle}/follow", Access: user,
			Activity: &ActivitySpec{Type: "follow", Kind: "add", RefParam: "handle"}, Handle: h.FollowUser},
		{Method: http.MethodDelete, Path: "/api/v1/users/{handle}/follow", Access: user,
			Activity: &ActivitySpec{Type: "follow", Kind: "remove", RefParam: "handle"}, Handle: h.UnfollowUser},
		{Method: http.MethodGet, Path: "/api/v1/users/{handle}/followers", Access: public, Handle: h.ListFollowers},
		{Method: http.MethodGet, Path: "/api/v1/users/{handle}/following", Access: public, Handle: h.ListFollowing},
		{Method: http.MethodPut, Path: "/api/v1/publications/{id}/bookmark", Access: user,
			Activity: &ActivitySpec{Type: "bookmark", Kind: "add", RefParam: "id"}, Handle: h.AddBookmark},
		{Method: http.MethodDelete, Path: "/api/v1/publications/{id}/bookmark", Access: user,
			Activity: &ActivitySpec{Type: "bookmark", Kind: "remove", RefParam: "id"}, Handle: h.RemoveBookmark},
		{Method: http.MethodGet, Path: "/api/v1/bookmarks", Access: user, Handle: h.ListBookmarks},

		// Federation.
		{Method: http.MethodPost, Path: "/api/v1/federation/reviews", Multipart: true, Access: peer, Handle: h.ImportReview},
		{Method: http.MethodGet, Path: "/api/v1/federation/users/{ref}", Access: peer, Handle: h.FederationUser},
		{Method: http.MethodGet, Path: "/api/v1/federation/reviews/{id}/export", Access: peer, Handle: h.ExportReview},

		// Peer registry administration.
		{Method: http.MethodGet, Path: "/api/v1/supergroups", Access: admin, Handle: h.ListSupergroups},
		{Method: http.MethodPost, Path: "/api/v1/supergroups", Schema: supergroupSchema, Access: admin,
			Activity: &ActivitySpec{Type: "supergroup", Kind: "register"}, Handle: h.RegisterSupergroup},
		{Method: http.MethodDelete, Path: "/api/v1/supergroups/{id}", Access: admin,
			Activity: &ActivitySpec{Type: "supergroup", Kind: "remove", RefParam: "id"}, Handle: h.RemoveSupergroup},
	}
}
