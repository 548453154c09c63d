package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/middleware"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
	"github.com/fivvy/server-go/internal/service"
)

// PortalHandler serves the token-gated client portal. The portal routes are
// unauthenticated: possession of a valid token is the credential.
type PortalHandler struct {
	portalService *service.PortalService
	clients       repository.ClientRepository
}

func NewPortalHandler(portalService *service.PortalService, clients repository.ClientRepository) *PortalHandler {
	return &PortalHandler{portalService: portalService, clients: clients}
}

// PortalRoutes returns the public token-gated endpoints.
func (h *PortalHandler) PortalRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetPortalData)
	r.Post("/invoices/{invoiceID}/approve", h.ApproveInvoice)

	return r
}

// IssueToken mints a portal token for a client. Staff only: the caller must
// own the client, or be an admin.
func (h *PortalHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	clientID, err := idParam(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}

	if user.Role != model.UserRoleAdmin {
		client, err := h.clients.FindByIDForUser(r.Context(), clientID, user.ID)
		if err != nil {
			writeError(w, apperrors.Database(err))
			return
		}
		if client == nil {
			writeError(w, apperrors.NotFound("Client"))
			return
		}
	}

	// Body is optional; an absent or empty body means the default TTL. A
	// body that is present but malformed is still a client error.
	var req struct {
		TTLMinutes int `json:"ttlMinutes"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	ttl := time.Duration(req.TTLMinutes) * time.Minute
	issued, err := h.portalService.IssueToken(r.Context(), clientID, ttl)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Info().
		Int64("clientId", clientID).
		Int64("userId", user.ID).
		Msg("portal token issued for client")

	// The raw token appears in this response and nowhere else.
	writeJSON(w, http.StatusCreated, map[string]any{
		"rawToken":         issued.RawToken,
		"link":             issued.PortalURL,
		"expiresInMinutes": int(time.Until(issued.Token.ExpiresAt).Round(time.Minute) / time.Minute),
	})
}

func (h *PortalHandler) GetPortalData(w http.ResponseWriter, r *http.Request) {
	clientID, err := idParam(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.portalService.GetPortalData(r.Context(), clientID, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

func (h *PortalHandler) ApproveInvoice(w http.ResponseWriter, r *http.Request) {
	clientID, err := idParam(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}

	invoiceID, err := idParam(r, "invoiceID")
	if err != nil {
		writeError(w, err)
		return
	}

	invoice, err := h.portalService.ApproveInvoice(r.Context(), clientID, invoiceID, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"invoiceId": invoice.ID,
	})
}
