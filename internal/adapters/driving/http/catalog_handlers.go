package http

import (
	"net/http"
	"strconv"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// ProposalRequest records the ingredients of a search for later proposals
// @Description Ingredients searched by the current user
type ProposalRequest struct {
	Ingredients []string `json:"ingredients" example:"carrot,onion"`
}

// CommentRequest is the body of a new comment
// @Description New comment
type CommentRequest struct {
	Content string `json:"content" example:"Lovely with crusty bread"`
}

// RatingRequest is the body of a new rating
// @Description New rating, 1 to 5
type RatingRequest struct {
	Value int `json:"value" example:"4"`
}

const (
	defaultCommentPage  = 1
	defaultCommentLimit = 20
	maxCommentLimit     = 100
)

// Search and details

// handleSearch godoc
// @Summary      Search by ingredients
// @Description  Rank local and provider entities by how many of the given ingredients they use.
// @Description  Unknown ingredients are dropped.
// @Tags         Catalog
// @Produce      json
// @Param        ingredients  query     string  true   "Comma separated ingredients"
// @Param        type         query     string  false  "Entity type, e.g. main course"
// @Success      200          {array}   domain.RatedEntity
// @Failure      400          {object}  ErrorResponse  "No known ingredients"
// @Router       /dishes [get]
// @Router       /meals [get]
func (s *Server) handleSearch(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ingredients := domain.SplitIngredients(q.Get("ingredients"))

		results, err := c.Aggregation.GetEntities(r.Context(), ingredients, q.Get("type"))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, results)
	}
}

// handleGetDetails godoc
// @Summary      Get details
// @Description  Full record of a local or provider entity
// @Tags         Catalog
// @Produce      json
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  domain.DetailedEntity
// @Failure      403  {object}  ErrorResponse  "Awaiting review"
// @Failure      404  {object}  ErrorResponse  "Not found"
// @Router       /dishes/{id} [get]
// @Router       /meals/{id} [get]
func (s *Server) handleGetDetails(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		detail, err := c.Aggregation.GetEntityDetails(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		if detail == nil {
			writeError(w, http.StatusNotFound, string(c.Aggregation.Kind())+" "+id+" not found")
			return
		}

		writeJSON(w, http.StatusOK, detail)
	}
}

// Proposals

// handleGetProposal godoc
// @Summary      Get proposals
// @Description  Personalized feed built from the caller's recent searches
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ProposedEntity
// @Failure      401  {object}  ErrorResponse
// @Router       /dishes/proposal [get]
// @Router       /meals/proposal [get]
func (s *Server) handleGetProposal(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r.Context())

		proposals, err := c.Aggregation.GetProposal(r.Context(), authCtx.UserID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, proposals)
	}
}

// handleAddProposal godoc
// @Summary      Record a search
// @Description  Store the ingredients of a search for later proposals
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ProposalRequest  true  "Searched ingredients"
// @Success      201      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Router       /dishes/proposal [post]
// @Router       /meals/proposal [post]
func (s *Server) handleAddProposal(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r.Context())

		var req ProposalRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		if err := c.Aggregation.AddProposal(r.Context(), authCtx.UserID, req.Ingredients); err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, StatusResponse{Status: "ok"})
	}
}

// Lifecycle

// handleCreate godoc
// @Summary      Propose a new entity
// @Description  Store a new local entity pending admin review. Requires the add capability.
// @Tags         Lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.EntityDraft  true  "Entity"
// @Success      201      {object}  domain.LocalEntity
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Router       /dishes [post]
// @Router       /meals [post]
func (s *Server) handleCreate(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft domain.EntityDraft
		if err := decodeJSON(r, &draft); err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		entity, err := c.Lifecycle.Create(r.Context(), GetAuthContext(r.Context()), draft)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, entity)
	}
}

// handleEdit godoc
// @Summary      Propose an edit
// @Description  Attach a diff to an active entity pending admin review. Requires the edit capability.
// @Tags         Lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Entity ID"
// @Param        request  body      domain.EntityDiff  true  "Changed fields"
// @Success      200      {object}  domain.LocalEntity
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse  "Not in a state that allows edits"
// @Router       /dishes/{id} [put]
// @Router       /meals/{id} [put]
func (s *Server) handleEdit(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var diff domain.EntityDiff
		if err := decodeJSON(r, &diff); err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		entity, err := c.Lifecycle.Edit(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"), diff)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, entity)
	}
}

// handleDelete godoc
// @Summary      Propose a deletion
// @Description  Hide an active entity pending admin review. Requires the delete capability.
// @Tags         Lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  domain.LocalEntity
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /dishes/{id} [delete]
// @Router       /meals/{id} [delete]
func (s *Server) handleDelete(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, err := c.Lifecycle.Delete(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, entity)
	}
}

// handleListPending godoc
// @Summary      Review queue
// @Description  Entities awaiting admin confirmation (admin only)
// @Tags         Lifecycle
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.LocalEntity
// @Failure      403  {object}  ErrorResponse
// @Router       /dishes/pending [get]
// @Router       /meals/pending [get]
func (s *Server) handleListPending(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := c.Lifecycle.ListPending(r.Context(), GetAuthContext(r.Context()))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, pending)
	}
}

// handleConfirmCreate godoc
// @Summary      Confirm creation
// @Tags         Lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  domain.LocalEntity
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /dishes/{id}/confirm-create [post]
// @Router       /meals/{id}/confirm-create [post]
func (s *Server) handleConfirmCreate(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, err := c.Lifecycle.ConfirmCreate(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entity)
	}
}

// handleConfirmEdit godoc
// @Summary      Confirm edit
// @Tags         Lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  domain.LocalEntity
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /dishes/{id}/confirm-edit [post]
// @Router       /meals/{id}/confirm-edit [post]
func (s *Server) handleConfirmEdit(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, err := c.Lifecycle.ConfirmEdit(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entity)
	}
}

// handleConfirmDelete godoc
// @Summary      Confirm deletion
// @Description  Removes the entity with its comments and ratings
// @Tags         Lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /dishes/{id}/confirm-delete [post]
// @Router       /meals/{id}/confirm-delete [post]
func (s *Server) handleConfirmDelete(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.Lifecycle.ConfirmDelete(r.Context(), GetAuthContext(r.Context()), r.PathValue("id")); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
	}
}

// Comments and ratings

// handleListComments godoc
// @Summary      List comments
// @Description  Newest first
// @Tags         Feedback
// @Produce      json
// @Param        id     path      string  true   "Entity ID"
// @Param        page   query     int     false  "Page, from 1"  default(1)
// @Param        limit  query     int     false  "Page size"     default(20)
// @Success      200    {array}   domain.Comment
// @Failure      400    {object}  ErrorResponse
// @Router       /dishes/{id}/comments [get]
// @Router       /meals/{id}/comments [get]
func (s *Server) handleListComments(kind domain.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := queryInt(r, "page", defaultCommentPage)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		limit, err := queryInt(r, "limit", defaultCommentLimit)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		if limit > maxCommentLimit {
			limit = maxCommentLimit
		}

		comments, err := s.commentService.ListComments(r.Context(), kind, r.PathValue("id"), page, limit)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, comments)
	}
}

// handleAddComment godoc
// @Summary      Add comment
// @Tags         Feedback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string          true  "Entity ID"
// @Param        request  body      CommentRequest  true  "Comment"
// @Success      201      {object}  domain.Comment
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /dishes/{id}/comments [post]
// @Router       /meals/{id}/comments [post]
func (s *Server) handleAddComment(kind domain.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CommentRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		comment, err := s.commentService.AddComment(r.Context(), GetAuthContext(r.Context()), kind, r.PathValue("id"), req.Content)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, comment)
	}
}

// handleDeleteComment godoc
// @Summary      Delete comment
// @Description  Authors may delete their own comments, admins any
// @Tags         Feedback
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Comment ID"
// @Success      200  {object}  StatusResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /comments/{id} [delete]
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := s.commentService.DeleteComment(r.Context(), GetAuthContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// handleGetRating godoc
// @Summary      Rating summary
// @Tags         Feedback
// @Produce      json
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  domain.RatingSummary
// @Failure      404  {object}  ErrorResponse
// @Router       /dishes/{id}/rating [get]
// @Router       /meals/{id}/rating [get]
func (s *Server) handleGetRating(kind domain.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := s.ratingService.CalculateRating(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// handleAddRating godoc
// @Summary      Rate
// @Description  Creates or replaces the caller's rating
// @Tags         Feedback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "Entity ID"
// @Param        request  body      RatingRequest  true  "Rating"
// @Success      200      {object}  domain.Rating
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /dishes/{id}/rating [post]
// @Router       /meals/{id}/rating [post]
func (s *Server) handleAddRating(kind domain.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RatingRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		rating, err := s.ratingService.AddRating(r.Context(), GetAuthContext(r.Context()), kind, r.PathValue("id"), req.Value)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rating)
	}
}

// queryInt reads a positive integer query parameter, def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, domain.BadRequest("query", name+" must be a positive integer")
	}
	return v, nil
}
