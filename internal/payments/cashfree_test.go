package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCashfreeVerifyWebhook(t *testing.T) {
	g := NewCashfree("app-id", "secret-key", "https://api.cashfree.com")

	body := []byte(`{"data":{"order":{"order_id":"CONF25-002-1700000000000"}}}`)
	timestamp := "1700000001"

	mac := hmac.New(sha256.New, []byte("secret-key"))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !g.VerifyWebhook(timestamp, body, signature) {
		t.Error("valid signature rejected")
	}
	if g.VerifyWebhook(timestamp, body, "bogus") {
		t.Error("bogus signature accepted")
	}
	if g.VerifyWebhook("1700000002", body, signature) {
		t.Error("signature accepted with altered timestamp")
	}
}

func TestCashfreeGetOrderStatus(t *testing.T) {
	tests := []struct {
		orderStatus string
		success     bool
		pending     bool
	}{
		{"PAID", true, false},
		{"ACTIVE", false, true},
		{"EXPIRED", false, false},
		{"TERMINATED", false, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"order_id":"CONF25-001-1700000000000","order_amount":800,"order_status":%q}`, tt.orderStatus)
		}))
		g := NewCashfree("app-id", "secret-key", srv.URL)
		n, err := g.GetOrder(context.Background(), "CONF25-001-1700000000000")
		srv.Close()
		if err != nil {
			t.Fatalf("GetOrder %s: %v", tt.orderStatus, err)
		}
		if n.Success != tt.success || n.Pending != tt.pending {
			t.Errorf("GetOrder %s: success=%v pending=%v, want success=%v pending=%v",
				tt.orderStatus, n.Success, n.Pending, tt.success, tt.pending)
		}
		if n.Amount != 800 {
			t.Errorf("GetOrder %s: amount = %d, want 800", tt.orderStatus, n.Amount)
		}
	}
}

func TestCashfreeParseWebhook(t *testing.T) {
	g := NewCashfree("app-id", "secret-key", "https://api.cashfree.com")

	body := []byte(`{"data":{
		"order":{"order_id":"CONF25-002-1700000000000"},
		"payment":{"cf_payment_id":5114910,"payment_status":"SUCCESS","payment_amount":750}
	}}`)
	n, err := g.ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if n.OrderID != "CONF25-002-1700000000000" {
		t.Errorf("OrderID = %q", n.OrderID)
	}
	if !n.Success || n.Amount != 750 || n.TransactionID != "5114910" {
		t.Errorf("notification = %+v", n)
	}

	failed, err := g.ParseWebhook([]byte(`{"data":{"payment":{"payment_status":"FAILED"}}}`))
	if err != nil {
		t.Fatalf("ParseWebhook failed case: %v", err)
	}
	if failed.Success {
		t.Error("FAILED status parsed as success")
	}
}
