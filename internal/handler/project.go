package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/middleware"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/service"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{projectID}", h.Get)
	r.Put("/{projectID}", h.Update)
	r.Delete("/{projectID}", h.Delete)

	return r
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	projects, err := h.projectService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	id, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projectService.Get(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	var req struct {
		ClientID     int64   `json:"clientId"`
		ProjectName  string  `json:"projectName"`
		Description  string  `json:"description"`
		ProjectPrice float64 `json:"projectPrice"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projectService.Create(r.Context(), user.ID, model.CreateProjectParams{
		ClientID:     req.ClientID,
		ProjectName:  req.ProjectName,
		Description:  req.Description,
		ProjectPrice: req.ProjectPrice,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	id, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	var params model.UpdateProjectParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projectService.Update(r.Context(), id, user.ID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	id, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.projectService.Delete(r.Context(), id, user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
