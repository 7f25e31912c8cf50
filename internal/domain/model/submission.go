package model

import "time"

type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission is one student attempt. It is created pending and mutated only
// by the pipeline; completed and failed are terminal. SheetUpdated is set
// once the group-sheet cells were written.
type Submission struct {
	ID           string           `bson:"_id" json:"id"`
	UserID       string           `bson:"user_id" json:"user_id"`
	QuestionID   string           `bson:"question_id" json:"question_id"`
	Code         string           `bson:"code" json:"-"`
	Language     string           `bson:"language" json:"language"`
	TrialCount   int              `bson:"trial_count" json:"trial_count"`
	TimeMinutes  int              `bson:"time_minutes" json:"time_minutes"`
	CommitURL    *string          `bson:"commit_url" json:"commit_url,omitempty"`
	Status       SubmissionStatus `bson:"status" json:"status"`
	SheetUpdated bool             `bson:"sheet_updated" json:"sheet_updated"`
	ErrorMessage *string          `bson:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at" json:"updated_at"`
}
