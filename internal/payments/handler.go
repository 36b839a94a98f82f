package payments

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confera/backend/internal/middleware"
	"github.com/confera/backend/pkg/response"
)

// Handler handles payment HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a payments handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// InitiateRequest is the body for POST /me/registration/payment.
type InitiateRequest struct {
	Provider string `json:"provider" binding:"required,oneof=payu cashfree"`
}

// Initiate handles POST /me/registration/payment.
func (h *Handler) Initiate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	session, err := h.svc.Initiate(c.Request.Context(), userID, req.Provider)
	if err != nil {
		response.Error(c, err, "failed to initiate payment")
		return
	}
	response.OK(c, session)
}

// PayUWebhook handles POST /payments/webhook/payu. PayU posts the
// callback as form fields signed with the reverse hash.
func (h *Handler) PayUWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		response.BadRequest(c, "invalid form payload")
		return
	}
	params := make(map[string]string, len(c.Request.PostForm))
	for k := range c.Request.PostForm {
		params[k] = c.Request.PostForm.Get(k)
	}

	n, err := h.svc.payu.VerifyNotification(params)
	if err != nil {
		h.logger.Warn("payu webhook rejected", zap.Error(err))
		response.BadRequest(c, "invalid signature")
		return
	}
	raw, _ := json.Marshal(params)
	if err := h.svc.Confirm(c.Request.Context(), n, raw); err != nil {
		response.Error(c, err, "failed to record payment")
		return
	}
	response.OK(c, gin.H{"order_id": n.OrderID})
}

// CashfreeWebhook handles POST /payments/webhook/cashfree with the
// HMAC signature headers Cashfree sends.
func (h *Handler) CashfreeWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable payload")
		return
	}
	timestamp := c.GetHeader("x-webhook-timestamp")
	signature := c.GetHeader("x-webhook-signature")
	if !h.svc.cashfree.VerifyWebhook(timestamp, body, signature) {
		h.logger.Warn("cashfree webhook rejected", zap.String("timestamp", timestamp))
		response.BadRequest(c, "invalid signature")
		return
	}

	n, err := h.svc.cashfree.ParseWebhook(body)
	if err != nil {
		response.BadRequest(c, "invalid payload")
		return
	}
	if err := h.svc.Confirm(c.Request.Context(), n, body); err != nil {
		response.Error(c, err, "failed to record payment")
		return
	}
	response.OK(c, gin.H{"order_id": n.OrderID})
}

// VerifyRequest is the body for POST /payments/verify, the client-side
// confirmation path.
type VerifyRequest struct {
	Provider string            `json:"provider" binding:"required,oneof=payu cashfree"`
	OrderID  string            `json:"order_id"`
	Params   map[string]string `json:"params"`
}

// Verify handles POST /payments/verify. For PayU the client relays the
// signed return parameters; for Cashfree the order status is fetched
// from the gateway. Both funnel into the same idempotent confirmation.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var (
		n   *Notification
		raw json.RawMessage
		err error
	)
	switch req.Provider {
	case "payu":
		n, err = h.svc.payu.VerifyNotification(req.Params)
		if err != nil {
			response.BadRequest(c, "invalid signature")
			return
		}
		raw, _ = json.Marshal(req.Params)
	case "cashfree":
		if req.OrderID == "" {
			response.BadRequest(c, "order_id required")
			return
		}
		n, err = h.svc.cashfree.GetOrder(c.Request.Context(), req.OrderID)
		if err != nil {
			response.Error(c, err, "failed to verify payment")
			return
		}
		raw, _ = json.Marshal(n)
	}

	// Checkout still open: nothing to record yet.
	if n.Pending {
		response.OK(c, gin.H{"order_id": n.OrderID, "success": false, "pending": true})
		return
	}

	if err := h.svc.Confirm(c.Request.Context(), n, raw); err != nil {
		response.Error(c, err, "failed to record payment")
		return
	}
	response.OK(c, gin.H{"order_id": n.OrderID, "success": n.Success})
}

// ListByRegistration handles GET /registrations/:id/payments (admin).
func (h *Handler) ListByRegistration(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	list, err := h.svc.ListByRegistration(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list payments")
		return
	}
	response.OK(c, list)
}
