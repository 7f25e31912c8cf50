package service

import (
	"context"
	"testing"

	"codetrack/internal/common"
	"codetrack/internal/common/security"
	"codetrack/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberGroup() *model.GroupSheet {
	return &model.GroupSheet{
		ID:           "group-1",
		GroupName:    "G1",
		SheetID:      "group-sheet",
		NameColumn:   "C",
		NameStartRow: 2,
		NameEndRow:   6,
		Active:       true,
	}
}

func newUserFixture(names ...string) (*UserService, *fakeUserRepo, *fakeSheet) {
	sheet := newFakeSheet()
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	sheet.rangeValues["group-sheet|C2:C6"] = rows
	users := newFakeUserRepo()
	svc := NewUserService(users, newFakeGroupRepo(memberGroup()), sheet, testEncryptionKey)
	return svc, users, sheet
}

func TestCreateUserResolvesExactRow(t *testing.T) {
	svc, _, _ := newUserFixture("Bob Builder", "Alice Example", "Carol Danvers")

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		FullName:  "alice example",
		Email:     "alice@example.com",
		GroupName: "G1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, user.SheetRow)
	assert.Equal(t, model.UserPendingRepo, user.Status)
	assert.Equal(t, model.RoleUser, user.Role)
}

func TestCreateUserFuzzyFallback(t *testing.T) {
	svc, _, _ := newUserFixture("Bob Builder", "Alice M. Example", "Carol Danvers")

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		FullName:  "Alice Example",
		Email:     "alice@example.com",
		GroupName: "G1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, user.SheetRow)
}

func TestCreateUserNotInMemberRange(t *testing.T) {
	svc, _, _ := newUserFixture("Bob Builder", "Carol Danvers")

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		FullName:  "Zachary Quinto",
		Email:     "z@example.com",
		GroupName: "G1",
	})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateUserSealsRepoToken(t *testing.T) {
	svc, users, _ := newUserFixture("Alice Example")

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		FullName:     "Alice Example",
		Email:        "alice@example.com",
		GroupName:    "G1",
		RepoUsername: "alice",
		RepoFullName: "alice/solutions",
		RepoToken:    "ghp_secret_token",
	})
	require.NoError(t, err)
	assert.Equal(t, model.UserActive, user.Status)

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RepoToken)
	require.NotNil(t, stored.RepoTokenEnc)
	plain, err := security.DecryptSecret(testEncryptionKey, *stored.RepoTokenEnc)
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret_token", plain)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _, _ := newUserFixture("Alice Example", "Bob Builder")

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		FullName:  "Alice Example",
		Email:     "alice@example.com",
		GroupName: "G1",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{
		FullName:  "Bob Builder",
		Email:     "alice@example.com",
		GroupName: "G1",
	})
	require.ErrorIs(t, err, common.ErrConflict)
}
