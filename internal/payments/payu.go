package payments

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
)

// PayU builds the client-side checkout form for PayU's hosted page and
// verifies callback hashes. No server-to-server call is needed: the
// browser posts the signed form directly to the gateway.
type PayU struct {
	merchantKey string
	salt        string
	baseURL     string
}

// NewPayU creates a PayU gateway client.
func NewPayU(merchantKey, salt, baseURL string) *PayU {
	return &PayU{merchantKey: merchantKey, salt: salt, baseURL: baseURL}
}

// Name returns the provider identifier.
func (p *PayU) Name() string { return "payu" }

// Configured reports whether merchant credentials are present.
func (p *PayU) Configured() bool { return p.merchantKey != "" && p.salt != "" }

// CreateSession returns the checkout URL and signed form fields for an
// order. Amount is formatted with two decimals as PayU requires.
func (p *PayU) CreateSession(o Order) (*CheckoutSession, error) {
	amount := fmt.Sprintf("%d.00", o.Amount)
	params := map[string]string{
		"key":         p.merchantKey,
		"txnid":       o.OrderID,
		"amount":      amount,
		"productinfo": o.Product,
		"firstname":   o.PayerName,
		"email":       o.PayerEmail,
		"phone":       o.PayerMobile,
		"surl":        o.ReturnURL,
		"furl":        o.ReturnURL,
	}
	params["hash"] = p.requestHash(o.OrderID, amount, o.Product, o.PayerName, o.PayerEmail)
	return &CheckoutSession{
		Provider:    p.Name(),
		OrderID:     o.OrderID,
		Amount:      o.Amount,
		Currency:    o.Currency,
		CheckoutURL: strings.TrimRight(p.baseURL, "/") + "/_payment",
		Params:      params,
	}, nil
}

// requestHash is sha512 over the pipe-joined request fields:
// key|txnid|amount|productinfo|firstname|email|udf1..udf5||||||salt.
func (p *PayU) requestHash(txnid, amount, productinfo, firstname, email string) string {
	fields := []string{
		p.merchantKey, txnid, amount, productinfo, firstname, email,
		"", "", "", "", "", // udf1..udf5 unused
		"", "", "", "", "",
		p.salt,
	}
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// responseHash is the reverse-order hash PayU sends on callbacks:
// salt|status|udf5..udf1 (empty)|email|firstname|productinfo|amount|txnid|key.
func (p *PayU) responseHash(status, txnid, amount, productinfo, firstname, email string) string {
	fields := []string{
		p.salt, status,
		"", "", "", "", "",
		"", "", "", "", "", // udf5..udf1 unused
		email, firstname, productinfo, amount, txnid, p.merchantKey,
	}
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// VerifyNotification checks the callback hash and extracts the outcome.
// params are the form fields PayU posts to the webhook/return URL.
func (p *PayU) VerifyNotification(params map[string]string) (*Notification, error) {
	status := params["status"]
	expected := p.responseHash(
		status, params["txnid"], params["amount"],
		params["productinfo"], params["firstname"], params["email"],
	)
	if params["hash"] != expected {
		return nil, fmt.Errorf("payu hash mismatch for txnid %s", params["txnid"])
	}
	return &Notification{
		Provider:      p.Name(),
		OrderID:       params["txnid"],
		TransactionID: params["mihpayid"],
		Success:       status == "success",
		Amount:        parseAmount(params["amount"]),
	}, nil
}

func parseAmount(s string) int {
	// "500.00" -> 500; fractional paise are not used by the fee schedule.
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	var n int
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
