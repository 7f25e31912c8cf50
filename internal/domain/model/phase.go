package model

import "time"

// Phase is one tab of the master spreadsheet tracking a cohort stage.
// (MasterSheetID, TabName) is unique. LastQuestionColumn is the allocation
// watermark: the highest question column ever assigned on this tab. It only
// advances; LastQuestionColumnNum carries the same value in column-number
// space so the advance can be done as a conditional update.
type Phase struct {
	ID                    string    `bson:"_id" json:"id"`
	Name                  string    `bson:"name" json:"name"`
	TabName               string    `bson:"tab_name" json:"tab_name"`
	MasterSheetID         string    `bson:"master_sheet_id" json:"master_sheet_id"`
	StartColumn           string    `bson:"start_column" json:"start_column"`
	LastQuestionColumn    *string   `bson:"last_question_column" json:"last_question_column"`
	LastQuestionColumnNum int       `bson:"last_question_column_num" json:"-"`
	Order                 int       `bson:"order" json:"order"`
	Active                bool      `bson:"active" json:"active"`
	CreatedAt             time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time `bson:"updated_at" json:"updated_at"`
}
