package model

import "time"

// GroupSheet is one cohort's private tracking spreadsheet. NameColumn and the
// start/end rows bound the range where member names are listed; a member's
// stored sheet row is resolved against that range.
type GroupSheet struct {
	ID           string    `bson:"_id" json:"id"`
	GroupName    string    `bson:"group_name" json:"group_name"`
	SheetID      string    `bson:"sheet_id" json:"sheet_id"`
	NameColumn   string    `bson:"name_column" json:"name_column"`
	NameStartRow int       `bson:"name_start_row" json:"name_start_row"`
	NameEndRow   int       `bson:"name_end_row" json:"name_end_row"`
	Active       bool      `bson:"active" json:"active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
