package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/middleware"
	"github.com/vaughan-dsouza/board/internal/utils"
)

type PostHandler struct {
	svc    PostService
	logger *slog.Logger
}

func NewPostHandler(svc PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{svc: svc, logger: logger}
}

type createPostReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type updatePostReq struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ---------------------- CREATE ----------------------

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, common.ErrUnauthenticated)
		return
	}

	var req createPostReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	post, err := h.svc.Create(r.Context(), caller, req.Title, req.Body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusCreated, post)
}

// ---------------------- GET ONE ----------------------

func (h *PostHandler) GetPostByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	post, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusOK, post)
}

// ---------------------- LIST ----------------------

func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusOK, posts)
}

// ---------------------- UPDATE ----------------------

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, common.ErrUnauthenticated)
		return
	}

	var req updatePostReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	id, ok := h.postID(w, r, req.ID)
	if !ok {
		return
	}

	post, err := h.svc.Update(r.Context(), caller, id, req.Title, req.Body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusOK, post)
}

// ---------------------- DELETE ----------------------

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, common.ErrUnauthenticated)
		return
	}

	id, ok := h.postID(w, r, r.URL.Query().Get("id"))
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), caller, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

// postID parses a post id. A missing id is a bad request; one that is not a
// UUID names no post and is reported as 404.
func (h *PostHandler) postID(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		utils.JSONError(w, http.StatusBadRequest, "post id required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, r, h.logger, common.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}
