package models

import "time"

// JobStatus is the lifecycle state of a batch scrape job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobScraping  JobStatus = "scraping"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// InFlight reports whether the job is still running on the remote side.
func (s JobStatus) InFlight() bool {
	return s == JobPending || s == JobScraping
}

// Terminal reports whether the job has reached a final state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// ScrapeJob records one submission to the external batch-scrape
// service. Status transitions are driven by polling the remote job or
// by operator cancel/delete.
type ScrapeJob struct {
	ID           string      `json:"id" db:"id"`
	JobID        string      `json:"job_id" db:"job_id"`
	URLs         StringArray `json:"urls" db:"urls"`
	Status       JobStatus   `json:"status" db:"status"`
	StartedAt    time.Time   `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	TotalPages   *int        `json:"total_pages,omitempty" db:"total_pages"`
	PagesScraped *int        `json:"pages_scraped,omitempty" db:"pages_scraped"`
	ErrorMessage *string     `json:"error_message,omitempty" db:"error_message"`
}
