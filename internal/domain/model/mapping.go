package model

import "time"

// QuestionGroupMapping binds a Question to one GroupSheet, carrying the
// trial-count and time columns inside that group's sheet. (QuestionID,
// GroupID) is unique; one is created for every active group when a Question
// is approved.
type QuestionGroupMapping struct {
	ID          string    `bson:"_id" json:"id"`
	QuestionID  string    `bson:"question_id" json:"question_id"`
	GroupID     string    `bson:"group_id" json:"group_id"`
	TrialColumn string    `bson:"trial_column" json:"trial_column"`
	TimeColumn  string    `bson:"time_column" json:"time_column"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
