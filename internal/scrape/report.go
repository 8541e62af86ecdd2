package scrape

import (
	"time"

	"github.com/google/uuid"
)

// Report summarizes one collection run for logging and notification.
type Report struct {
	RunID      string    `json:"run_id"`
	TaskType   string    `json:"task_type"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	CookieUsed string    `json:"cookie_used"`

	CreatorsCollected int      `json:"creators_collected"`
	VideosCollected   int      `json:"videos_collected"`
	CommentsCollected int      `json:"comments_collected"`
	Errors            []string `json:"errors,omitempty"`
}

func newReport(taskType string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		TaskType:  taskType,
		StartedAt: time.Now(),
	}
}

func (r *Report) addError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// Succeeded reports whether the run collected anything without fatal errors.
func (r *Report) Succeeded() bool {
	return r.CreatorsCollected > 0 || len(r.Errors) == 0
}
