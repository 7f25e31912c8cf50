package model

import "time"

type Platform string

const (
	PlatformLeetCode      Platform = "leetcode"
	PlatformCodeforces    Platform = "codeforces"
	PlatformHackerRank    Platform = "hackerrank"
	PlatformAtCoder       Platform = "atcoder"
	PlatformGeeksforGeeks Platform = "geeksforgeeks"
)

// KnownPlatforms is the closed set of platform tags a Question may carry.
var KnownPlatforms = map[Platform]bool{
	PlatformLeetCode:      true,
	PlatformCodeforces:    true,
	PlatformHackerRank:    true,
	PlatformAtCoder:       true,
	PlatformGeeksforGeeks: true,
}

const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Question is one practice problem. (Platform, QuestionKey) is globally
// unique. PhaseID is a weak reference: deleting a Phase leaves its Questions
// in place.
type Question struct {
	ID           string    `bson:"_id" json:"id"`
	Platform     Platform  `bson:"platform" json:"platform"`
	QuestionKey  string    `bson:"question_key" json:"question_key"`
	Title        string    `bson:"title" json:"title"`
	URL          string    `bson:"url" json:"url"`
	Difficulty   *string   `bson:"difficulty" json:"difficulty,omitempty"`
	Tags         []string  `bson:"tags" json:"tags"`
	PhaseID      *string   `bson:"phase_id" json:"phase_id,omitempty"`
	MasterColumn *string   `bson:"master_column" json:"master_column,omitempty"`
	TimeColumn   *string   `bson:"time_column" json:"time_column,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
