package jobqueue

import (
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeEmail JobType = "email"
	JobTypeSMS   JobType = "sms"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background delivery
type Job struct {
	ID          string      `json:"id"`
	Type        JobType     `json:"type"`
	Status      JobStatus   `json:"status"`
	Payload     interface{} `json:"payload"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	ErrorMsg    string      `json:"errorMsg,omitempty"`
}

// EmailPayload is the payload of JobTypeEmail jobs
type EmailPayload struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// SMSPayload is the payload of JobTypeSMS jobs
type SMSPayload struct {
	Phone string
	Text  string
}

// Stats is a snapshot of the queue counters
type Stats struct {
	Pending   int   `json:"pending"`
	Enqueued  int64 `json:"enqueued"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}
