package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/confera/backend/pkg/apperr"
)

// Cashfree creates orders through the PG orders API and verifies webhook
// signatures. Unlike PayU, a server-to-server call is required to obtain
// the payment session the client checkout opens with.
type Cashfree struct {
	appID     string
	secretKey string
	baseURL   string
	http      *http.Client
}

// NewCashfree creates a Cashfree gateway client.
func NewCashfree(appID, secretKey, baseURL string) *Cashfree {
	return &Cashfree{
		appID:     appID,
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the provider identifier.
func (g *Cashfree) Name() string { return "cashfree" }

// Configured reports whether merchant credentials are present.
func (g *Cashfree) Configured() bool { return g.appID != "" && g.secretKey != "" }

type cashfreeOrderRequest struct {
	OrderID       string               `json:"order_id"`
	OrderAmount   float64              `json:"order_amount"`
	OrderCurrency string               `json:"order_currency"`
	CustomerInfo  cashfreeCustomerInfo `json:"customer_details"`
	OrderMeta     cashfreeOrderMeta    `json:"order_meta"`
}

type cashfreeCustomerInfo struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type cashfreeOrderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type cashfreeOrderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
}

// CreateSession creates a Cashfree order and returns its payment session.
func (g *Cashfree) CreateSession(ctx context.Context, o Order) (*CheckoutSession, error) {
	body, err := json.Marshal(cashfreeOrderRequest{
		OrderID:       o.OrderID,
		OrderAmount:   float64(o.Amount),
		OrderCurrency: o.Currency,
		CustomerInfo: cashfreeCustomerInfo{
			CustomerID:    o.OrderID,
			CustomerName:  o.PayerName,
			CustomerEmail: o.PayerEmail,
			CustomerPhone: o.PayerMobile,
		},
		OrderMeta: cashfreeOrderMeta{ReturnURL: o.ReturnURL},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/pg/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-version", "2023-08-01")
	req.Header.Set("x-client-id", g.appID)
	req.Header.Set("x-client-secret", g.secretKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, apperr.Upstreamf("cashfree order: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstreamf("cashfree order: status %d", resp.StatusCode)
	}

	var out cashfreeOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Upstreamf("cashfree order: decode: %v", err)
	}
	return &CheckoutSession{
		Provider:  g.Name(),
		OrderID:   o.OrderID,
		Amount:    o.Amount,
		Currency:  o.Currency,
		SessionID: out.PaymentSessionID,
	}, nil
}

// GetOrder fetches an order's current status, used by the client-side
// verification path as an alternative to the webhook.
func (g *Cashfree) GetOrder(ctx context.Context, orderID string) (*Notification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/pg/orders/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-version", "2023-08-01")
	req.Header.Set("x-client-id", g.appID)
	req.Header.Set("x-client-secret", g.secretKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, apperr.Upstreamf("cashfree get order: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstreamf("cashfree get order: status %d", resp.StatusCode)
	}

	var out struct {
		OrderID     string  `json:"order_id"`
		OrderAmount float64 `json:"order_amount"`
		OrderStatus string  `json:"order_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Upstreamf("cashfree get order: decode: %v", err)
	}
	n := &Notification{
		Provider: g.Name(),
		OrderID:  out.OrderID,
		Amount:   int(out.OrderAmount),
	}
	// An order is only failed once the gateway closes it. ACTIVE means
	// the checkout is still open, so there is no verdict yet.
	switch out.OrderStatus {
	case "PAID":
		n.Success = true
	case "EXPIRED", "TERMINATED":
	default:
		n.Pending = true
	}
	return n, nil
}

// VerifyWebhook checks the x-webhook-signature header: base64 of
// HMAC-SHA256(secret, timestamp + raw body).
func (g *Cashfree) VerifyWebhook(timestamp string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.secretKey))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type cashfreeWebhook struct {
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			CFPaymentID   json.Number `json:"cf_payment_id"`
			PaymentStatus string      `json:"payment_status"`
			PaymentAmount float64     `json:"payment_amount"`
		} `json:"payment"`
	} `json:"data"`
}

// ParseWebhook extracts the order outcome from a verified webhook body.
func (g *Cashfree) ParseWebhook(body []byte) (*Notification, error) {
	var hook cashfreeWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	return &Notification{
		Provider:      g.Name(),
		OrderID:       hook.Data.Order.OrderID,
		TransactionID: hook.Data.Payment.CFPaymentID.String(),
		Success:       hook.Data.Payment.PaymentStatus == "SUCCESS",
		Amount:        int(hook.Data.Payment.PaymentAmount),
	}, nil
}
