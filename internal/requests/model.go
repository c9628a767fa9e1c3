package requests

import "time"

// Status is the review state of a custom request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewed  Status = "reviewed"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// allowedTransitions is the review workflow:
// pending -> reviewed -> {approved, rejected}; approved -> completed.
var allowedTransitions = map[Status][]Status{
	StatusPending:  {StatusReviewed},
	StatusReviewed: {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CustomRequest is a made-to-order inquiry submitted through the public form.
type CustomRequest struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone"`
	EventName     string    `json:"event_name"`
	EventDate     time.Time `json:"event_date"`
	Quantity      int       `json:"quantity"`
	SizeBreakdown string    `json:"size_breakdown"`
	Description   string    `json:"description"`
	StyleImages   []string  `json:"style_images"`
	Status        Status    `json:"status"`
	AdminNotes    string    `json:"admin_notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SubmitRequest is the public form body. Website is the honeypot: humans
// never see the field, so any value marks the submission as automated.
type SubmitRequest struct {
	ChallengeToken string    `json:"challenge_token" validate:"required"`
	Website        string    `json:"website"`
	CustomerName   string    `json:"customer_name" validate:"required,max=200"`
	CustomerEmail  string    `json:"customer_email" validate:"required,email,max=200"`
	CustomerPhone  string    `json:"customer_phone" validate:"max=50"`
	EventName      string    `json:"event_name" validate:"required,max=200"`
	EventDate      time.Time `json:"event_date" validate:"required"`
	Quantity       int       `json:"quantity" validate:"required,gte=1"`
	SizeBreakdown  string    `json:"size_breakdown" validate:"max=500"`
	Description    string    `json:"description" validate:"required"`
	StyleImages    []string  `json:"style_images" validate:"dive,max=500"`
}

// ReviewRequest is the admin PATCH body.
type ReviewRequest struct {
	Status     *Status `json:"status,omitempty"`
	AdminNotes *string `json:"admin_notes,omitempty" validate:"omitempty,max=2000"`
}

// ListFilters narrows request listings.
type ListFilters struct {
	Status *Status
	Limit  int
	Offset int
}
