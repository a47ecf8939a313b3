package review

import "time"

// ReviewID identifier type
type ReviewID string

// Review represents an AI listing review stored for auditing and retrieval
type Review struct {
	ID        ReviewID  `json:"id"`
	RunID     string    `json:"run_id"`
	ProductID string    `json:"product_id,omitempty"`
	Model     string    `json:"model,omitempty"`
	Result    string    `json:"result"` // JSON string from AI
	CreatedAt time.Time `json:"created_at"`
}
