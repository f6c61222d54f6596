package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"nido/internal/bookings/service"
	httputil "nido/pkg/http"
	"nido/pkg/logger"
	"nido/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var booking model.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &booking); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Confirm", h.service.Confirm)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Cancel", h.service.Cancel)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Complete", h.service.Complete)
}

func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "MarkNoShow", h.service.MarkNoShow)
}

func (h *BookingHandler) SetParentNotes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		ParentNotes string `json:"parent_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetParentNotes", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.SetParentNotes(r.Context(), ps.ByName("id"), body.ParentNotes); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetParentNotes", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) ListForSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := h.service.ListForSlot(r.Context(), ps.ByName("slotId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListForSlot", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForSlot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListForPage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status := model.BookingStatus(r.URL.Query().Get("status"))

	bookings, err := h.service.ListForPage(r.Context(), ps.ByName("pageId"), status)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListForPage", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForPage", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListForVisitor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status := model.BookingStatus(r.URL.Query().Get("status"))

	bookings, err := h.service.ListForVisitor(r.Context(), ps.ByName("visitorId"), status)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListForVisitor", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForVisitor", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params, name string, op func(ctx context.Context, id string) error) {
	if err := op(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/complete", h.Complete)
	router.POST("/api/v1/bookings/id/:id/no-show", h.MarkNoShow)
	router.PATCH("/api/v1/bookings/id/:id/parent-notes", h.SetParentNotes)
	router.GET("/api/v1/slots/:slotId/bookings", h.ListForSlot)
	router.GET("/api/v1/pages/:pageId/bookings", h.ListForPage)
	router.GET("/api/v1/visitors/:visitorId/bookings", h.ListForVisitor)
}
