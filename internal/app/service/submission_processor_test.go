package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"codetrack/internal/common"
	"codetrack/internal/common/security"
	"codetrack/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEncryptionKey = bytes.Repeat([]byte("k"), 32)

func strPtr(s string) *string { return &s }

type processorFixture struct {
	processor   *SubmissionProcessor
	submissions *fakeSubmissionRepo
	users       *fakeUserRepo
	sheet       *fakeSheet
	repoHost    *fakeRepoHost
}

func newProcessorFixture(t *testing.T, user *model.User) *processorFixture {
	t.Helper()
	phaseID := "phase-1"
	question := &model.Question{
		ID:          "q-1",
		Platform:    model.PlatformLeetCode,
		QuestionKey: "two-sum",
		Title:       "Two Sum",
		PhaseID:     &phaseID,
	}
	group := &model.GroupSheet{ID: "group-1", GroupName: "G1", SheetID: "group-sheet", Active: true}
	sub := &model.Submission{
		ID:          "sub-1",
		UserID:      user.ID,
		QuestionID:  "q-1",
		Code:        "def two_sum(): pass",
		Language:    "python3",
		TrialCount:  3,
		TimeMinutes: 25,
		Status:      model.SubmissionPending,
	}

	submissions := newFakeSubmissionRepo(sub)
	users := newFakeUserRepo(user)
	mappings := newFakeMappingRepo()
	_, err := mappings.Upsert(context.Background(), "q-1", "group-1", "E", "F")
	require.NoError(t, err)
	sheet := newFakeSheet()
	repoHost := &fakeRepoHost{commitURL: "https://github.com/alice/solutions/commit/abc123"}

	processor := NewSubmissionProcessor(
		submissions,
		users,
		newFakeQuestionRepo(question),
		newFakeGroupRepo(group),
		mappings,
		newFakePhaseRepo(testPhase()),
		sheet,
		repoHost,
		testEncryptionKey,
	)
	return &processorFixture{
		processor:   processor,
		submissions: submissions,
		users:       users,
		sheet:       sheet,
		repoHost:    repoHost,
	}
}

func activeUser(t *testing.T) *model.User {
	t.Helper()
	sealed, err := security.EncryptSecret(testEncryptionKey, "ghp_secret_token")
	require.NoError(t, err)
	return &model.User{
		ID:           "user-1",
		FullName:     "Alice Example",
		Email:        "alice@example.com",
		GroupName:    "G1",
		SheetRow:     12,
		RepoFullName: strPtr("alice/solutions"),
		RepoTokenEnc: &sealed,
		Status:       model.UserActive,
		Role:         model.RoleUser,
	}
}

func TestProcessCompletesSubmission(t *testing.T) {
	f := newProcessorFixture(t, activeUser(t))

	require.NoError(t, f.processor.Process(context.Background(), "sub-1"))

	sub, err := f.submissions.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionCompleted, sub.Status)
	assert.True(t, sub.SheetUpdated)
	require.NotNil(t, sub.CommitURL)
	assert.Equal(t, "https://github.com/alice/solutions/commit/abc123", *sub.CommitURL)
	assert.Nil(t, sub.ErrorMessage)

	require.Len(t, f.repoHost.calls, 1)
	assert.Equal(t, "alice/solutions|leetcode/two-sum.py|Add solution for two-sum", f.repoHost.calls[0])

	require.Len(t, f.sheet.trialWrites, 1)
	upd := f.sheet.trialWrites[0]
	assert.Equal(t, "Phase 1", upd.TabName)
	assert.Equal(t, 12, upd.Row)
	assert.Equal(t, "E", upd.TrialColumn)
	assert.Equal(t, "F", upd.TimeColumn)
	assert.Equal(t, 3, upd.TrialCount)
	assert.Equal(t, 25, upd.TimeMinutes)
}

func TestProcessIsIdempotentOnCompleted(t *testing.T) {
	f := newProcessorFixture(t, activeUser(t))
	require.NoError(t, f.processor.Process(context.Background(), "sub-1"))
	require.NoError(t, f.processor.Process(context.Background(), "sub-1"))
	assert.Len(t, f.repoHost.calls, 1)
	assert.Len(t, f.sheet.trialWrites, 1)
}

func TestProcessCommitFailureIsTransient(t *testing.T) {
	f := newProcessorFixture(t, activeUser(t))
	f.repoHost.err = errors.New("api rate limit exceeded")

	err := f.processor.Process(context.Background(), "sub-1")
	require.ErrorIs(t, err, common.ErrExternalService)

	sub, gerr := f.submissions.GetByID(context.Background(), "sub-1")
	require.NoError(t, gerr)
	assert.Equal(t, model.SubmissionFailed, sub.Status)
	require.NotNil(t, sub.ErrorMessage)
	assert.Contains(t, *sub.ErrorMessage, "rate limit")
	assert.False(t, sub.SheetUpdated)
	assert.Empty(t, f.sheet.trialWrites)
}

func TestProcessUserNotReadyIsTerminal(t *testing.T) {
	user := activeUser(t)
	user.Status = model.UserPendingRepo
	f := newProcessorFixture(t, user)

	// Terminal failures are absorbed so the queue does not retry them.
	require.NoError(t, f.processor.Process(context.Background(), "sub-1"))

	sub, err := f.submissions.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionFailed, sub.Status)
	require.NotNil(t, sub.ErrorMessage)
	assert.Contains(t, *sub.ErrorMessage, "no linked repository")
	assert.Empty(t, f.repoHost.calls)
}

func TestProcessMissingMappingIsTerminal(t *testing.T) {
	user := activeUser(t)
	user.GroupName = "G2"
	f := newProcessorFixture(t, user)
	// G2 has no registered sheet, so resolution stops before the mapping.

	require.NoError(t, f.processor.Process(context.Background(), "sub-1"))

	sub, err := f.submissions.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionFailed, sub.Status)
	assert.Empty(t, f.repoHost.calls)
}

func TestProcessPlaintextTokenFallback(t *testing.T) {
	user := activeUser(t)
	user.RepoTokenEnc = nil
	user.RepoToken = strPtr("legacy_plain_token")
	f := newProcessorFixture(t, user)

	require.NoError(t, f.processor.Process(context.Background(), "sub-1"))

	sub, err := f.submissions.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionCompleted, sub.Status)
}

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"python3":    "py",
		"C++":        "cpp",
		"TypeScript": "ts",
		"go":         "go",
		"rust":       "rs",
		"brainfuck":  "txt",
	}
	for lang, want := range cases {
		assert.Equal(t, want, fileExtension(lang), lang)
	}
}
