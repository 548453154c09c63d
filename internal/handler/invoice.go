package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/middleware"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/service"
)

type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{invoiceID}", h.Get)
	r.Put("/{invoiceID}", h.Update)
	r.Delete("/{invoiceID}", h.Delete)

	return r
}

type lineItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

func toLineItemParams(items []lineItemRequest) []model.LineItemParams {
	if items == nil {
		return nil
	}
	params := make([]model.LineItemParams, 0, len(items))
	for _, item := range items {
		params = append(params, model.LineItemParams{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return params
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	invoices, err := h.invoiceService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	id, err := idParam(r, "invoiceID")
	if err != nil {
		writeError(w, err)
		return
	}

	invoice, err := h.invoiceService.Get(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	var req struct {
		ClientID      int64             `json:"clientId"`
		ProjectID     *int64            `json:"projectId"`
		InvoiceNumber string            `json:"invoiceNumber"`
		InvoiceDate   time.Time         `json:"invoiceDate"`
		DueDate       time.Time         `json:"dueDate"`
		SubTotal      float64           `json:"subTotal"`
		Tax           float64           `json:"tax"`
		Total         float64           `json:"total"`
		Notes         *string           `json:"notes"`
		LineItems     []lineItemRequest `json:"lineItems"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	invoice, err := h.invoiceService.Create(r.Context(), user.ID, model.CreateInvoiceParams{
		ClientID:      req.ClientID,
		ProjectID:     req.ProjectID,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   req.InvoiceDate,
		DueDate:       req.DueDate,
		SubTotal:      req.SubTotal,
		Tax:           req.Tax,
		Total:         req.Total,
		Notes:         req.Notes,
		LineItems:     toLineItemParams(req.LineItems),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	id, err := idParam(r, "invoiceID")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		InvoiceNumber *string           `json:"invoiceNumber"`
		InvoiceDate   *time.Time        `json:"invoiceDate"`
		DueDate       *time.Time        `json:"dueDate"`
		SubTotal      *float64          `json:"subTotal"`
		Tax           *float64          `json:"tax"`
		Total         *float64          `json:"total"`
		Notes         *string           `json:"notes"`
		LineItems     []lineItemRequest `json:"lineItems"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	invoice, err := h.invoiceService.Update(r.Context(), id, user.ID, model.UpdateInvoiceParams{
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   req.InvoiceDate,
		DueDate:       req.DueDate,
		SubTotal:      req.SubTotal,
		Tax:           req.Tax,
		Total:         req.Total,
		Notes:         req.Notes,
		LineItems:     toLineItemParams(req.LineItems),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	id, err := idParam(r, "invoiceID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.invoiceService.Delete(r.Context(), id, user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
