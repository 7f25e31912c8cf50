package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UserPendingRepo = "pending_repo"
	UserActive      = "active"
)

// User is a student. SheetRow is their row inside the group sheet's member
// range. RepoToken holds a plaintext repository-access token only for
// accounts migrated before sealing was introduced; RepoTokenEnc is the
// AES-GCM sealed form and wins when both are set.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	FullName     string    `bson:"full_name" json:"full_name"`
	Email        string    `bson:"email" json:"email"`
	GroupName    string    `bson:"group_name" json:"group_name"`
	SheetRow     int       `bson:"sheet_row" json:"sheet_row"`
	RepoUsername *string   `bson:"repo_username" json:"repo_username,omitempty"`
	RepoFullName *string   `bson:"repo_full_name" json:"repo_full_name,omitempty"`
	RepoToken    *string   `bson:"repo_token" json:"-"`
	RepoTokenEnc *string   `bson:"repo_token_enc" json:"-"`
	Status       string    `bson:"status" json:"status"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
