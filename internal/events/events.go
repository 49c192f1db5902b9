package events

// Posting event types written to the outbox.
const (
	EventInvoicePosted  = "invoice_posted"
	EventInvoiceUpdated = "invoice_updated"
	EventInvoiceVoided  = "invoice_voided"
	EventCreditPosted  = "credit_posted"
	EventCreditVoided  = "credit_voided"
)

// PostingPayload captures the minimal data needed to replay a posting
// downstream.
type PostingPayload struct {
	TransactionID string `json:"transaction_id"`
	CustomerID    string `json:"customer_id"`
	Amount        string `json:"amount"`
	NewBalance    string `json:"new_balance"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PostingPayload) ToMap() map[string]any {
	return map[string]any{
		"transaction_id": p.TransactionID,
		"customer_id":    p.CustomerID,
		"amount":         p.Amount,
		"new_balance":    p.NewBalance,
	}
}
