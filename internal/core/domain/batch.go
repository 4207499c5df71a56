package domain

// BatchStatistics counts one batch run's per-item outcomes.
type BatchStatistics struct {
	TotalItems     int `json:"total_items"`
	Matched        int `json:"matched"`
	HighConfidence int `json:"high_confidence"`
	Partial        int `json:"partial"`
	NoMatch        int `json:"no_match"`
	Failed         int `json:"failed"`
	TimedOut       int `json:"timed_out"`
}

// BatchResult is the batch entry point's return value. Matches maps line item
// ID to its ranked candidates; items that failed or timed out map to an empty
// list and are recorded in Statistics and Errors.
type BatchResult struct {
	Matches    map[string][]CandidateMatch `json:"matches"`
	Statistics BatchStatistics             `json:"statistics"`
	Confidence float64                     `json:"confidence"`
	Gates      []QualityGateResult         `json:"gates,omitempty"`
	Errors     map[string]string           `json:"errors,omitempty"`
}

// Order groups the line items uploaded in one customer order document.
type Order struct {
	ID        string      `json:"id"`
	Customer  string      `json:"customer,omitempty"`
	Source    string      `json:"source,omitempty"`
	Status    OrderStatus `json:"status"`
	LineItems []LineItem  `json:"line_items,omitempty"`
}

// OrderStatus is the matching lifecycle state of an uploaded order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusMatching OrderStatus = "matching"
	OrderStatusMatched  OrderStatus = "matched"
	OrderStatusFailed   OrderStatus = "failed"
)
