package task

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses. A task is "open" until someone picks it up; enqueue dedupe
// only considers open and in_progress tasks.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"
)

// Task codes enqueued by the authorization status policy.
const (
	CodeFollowUp      = "follow_up"
	CodeAppeal        = "appeal"
	CodeRenewalReview = "renewal_review"
)

// Task maps to the tasks table.
type Task struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	AuthorizationID *uuid.UUID `db:"authorization_id" json:"authorization_id,omitempty"`
	Code            string     `db:"code" json:"code"`
	Priority        string     `db:"priority" json:"priority"`
	Status          string     `db:"status" json:"status"`
	Description     string     `db:"description" json:"description"`
	AssigneeID      *string    `db:"assignee_id" json:"assignee_id,omitempty"`
	DueDate         *time.Time `db:"due_date" json:"due_date,omitempty"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}
