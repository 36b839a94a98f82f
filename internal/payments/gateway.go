package payments

// Order describes a fee payment to hand to a gateway.
type Order struct {
	OrderID     string
	Amount      int
	Currency    string
	Product     string
	PayerName   string
	PayerEmail  string
	PayerMobile string
	ReturnURL   string
}

// CheckoutSession is what the client needs to open the gateway's
// checkout: a URL plus provider-specific signed parameters.
type CheckoutSession struct {
	Provider    string            `json:"provider"`
	OrderID     string            `json:"order_id"`
	Amount      int               `json:"amount"`
	Currency    string            `json:"currency"`
	CheckoutURL string            `json:"checkout_url"`
	Params      map[string]string `json:"params,omitempty"`
	SessionID   string            `json:"session_id,omitempty"`
}

// Notification is a verified gateway callback describing an order
// outcome. Pending means the order has no verdict yet (checkout still
// open); no outcome may be recorded from it.
type Notification struct {
	Provider      string
	OrderID       string
	TransactionID string
	Success       bool
	Pending       bool
	Amount        int
}
