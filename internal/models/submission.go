package models

import "time"

// Submission states. A failed processing attempt releases the submission
// back to pending, so retries are at-least-once; there is no failed state.
const (
	SubmissionPending    = "pending"
	SubmissionProcessing = "processing"
	SubmissionComplete   = "complete"
)

// Submission is a queued "add this book + review" request.
type Submission struct {
	ID       int64
	WorkKey  string
	Review   string
	Username string
	State    string

	// ClaimToken identifies the worker run that claimed this submission,
	// so a crashed claim can be told apart from a concurrent one.
	ClaimToken string

	CreatedAt   time.Time
	CompletedAt time.Time
}
