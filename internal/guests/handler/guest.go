package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"nido/internal/guests/service"
	httputil "nido/pkg/http"
	"nido/pkg/logger"
	"nido/pkg/model"
)

type GuestHandler struct {
	service service.GuestService
	log     *logger.Logger
}

func NewGuestHandler(service service.GuestService, log *logger.Logger) *GuestHandler {
	return &GuestHandler{
		service: service,
		log:     log,
	}
}

func (h *GuestHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var guest model.Guest
	if err := json.NewDecoder(r.Body).Decode(&guest); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &guest); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, guest); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *GuestHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	guest, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, guest); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *GuestHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.GuestUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *GuestHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *GuestHandler) ListForPage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	if email := query.Get("email"); email != "" {
		guest, err := h.service.GetByEmail(r.Context(), ps.ByName("pageId"), email)
		if err != nil {
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "ListForPage", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		if err := httputil.WriteSuccess(w, guest); err != nil {
			h.log.Error("failed to write success response", "handler", "ListForPage", "operation", "WriteSuccess", "error", err)
		}
		return
	}

	status := model.VisitStatus(query.Get("visit_status"))
	guests, err := h.service.ListForPage(r.Context(), ps.ByName("pageId"), status)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListForPage", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, guests); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForPage", "operation", "WriteSuccess", "error", err)
	}
}

func (h *GuestHandler) TagAlongOptions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	guests, err := h.service.TagAlongOptions(r.Context(), ps.ByName("pageId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "TagAlongOptions", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, guests); err != nil {
		h.log.Error("failed to write success response", "handler", "TagAlongOptions", "operation", "WriteSuccess", "error", err)
	}
}

func (h *GuestHandler) LinkToUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "LinkToUser", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.LinkToUser(r.Context(), ps.ByName("id"), body.UserID); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "LinkToUser", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *GuestHandler) RecordVisit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		VisitDate time.Time `json:"visit_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "RecordVisit", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.RecordVisit(r.Context(), ps.ByName("id"), body.VisitDate); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RecordVisit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *GuestHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/guests", h.Create)
	router.GET("/api/v1/guests/id/:id", h.GetByID)
	router.PATCH("/api/v1/guests/id/:id", h.Update)
	router.DELETE("/api/v1/guests/id/:id", h.Delete)
	router.POST("/api/v1/guests/id/:id/link", h.LinkToUser)
	router.POST("/api/v1/guests/id/:id/visits", h.RecordVisit)
	router.GET("/api/v1/pages/:pageId/guests", h.ListForPage)
	router.GET("/api/v1/pages/:pageId/guests/tag-along-options", h.TagAlongOptions)
}
