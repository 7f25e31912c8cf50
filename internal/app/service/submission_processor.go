package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"codetrack/internal/common"
	"codetrack/internal/common/security"
	"codetrack/internal/domain/model"
	"codetrack/internal/domain/repository"
	"codetrack/internal/platform/gsheet"
)

// languageExtensions maps submission languages to solution file extensions.
var languageExtensions = map[string]string{
	"python":     "py",
	"python3":    "py",
	"py":         "py",
	"cpp":        "cpp",
	"c++":        "cpp",
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"ts":         "ts",
	"java":       "java",
	"go":         "go",
	"c":          "c",
	"rust":       "rs",
	"rs":         "rs",
	"kotlin":     "kt",
	"kt":         "kt",
}

func fileExtension(language string) string {
	if ext, ok := languageExtensions[strings.ToLower(strings.TrimSpace(language))]; ok {
		return ext
	}
	return "txt"
}

// SubmissionProcessor runs the submission pipeline: resolve the member and
// question, commit the solution to the member's repository, and update the
// tracking cells on the group sheet. Failures split two ways: resolution
// failures are terminal and mark the submission failed; external API failures
// are returned wrapped in ErrExternalService so the queue retries them.
type SubmissionProcessor struct {
	submissionRepo repository.SubmissionRepository
	userRepo       repository.UserRepository
	questionRepo   repository.QuestionRepository
	groupRepo      repository.GroupSheetRepository
	mappingRepo    repository.MappingRepository
	phaseRepo      repository.PhaseRepository
	sheet          SheetAccessor
	repoHost       RepoHost
	encryptionKey  []byte
}

func NewSubmissionProcessor(
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	questionRepo repository.QuestionRepository,
	groupRepo repository.GroupSheetRepository,
	mappingRepo repository.MappingRepository,
	phaseRepo repository.PhaseRepository,
	sheet SheetAccessor,
	repoHost RepoHost,
	encryptionKey []byte,
) *SubmissionProcessor {
	return &SubmissionProcessor{
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		questionRepo:   questionRepo,
		groupRepo:      groupRepo,
		mappingRepo:    mappingRepo,
		phaseRepo:      phaseRepo,
		sheet:          sheet,
		repoHost:       repoHost,
		encryptionKey:  encryptionKey,
	}
}

// Process runs the pipeline for one submission. A non-nil return means the
// attempt failed transiently and may be retried; terminal failures are
// recorded on the submission and return nil.
func (p *SubmissionProcessor) Process(ctx context.Context, submissionID string) error {
	sub, err := p.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		log.Printf("ERROR: submission %s not loadable: %v", submissionID, err)
		return nil
	}
	if sub.Status == model.SubmissionCompleted {
		return nil
	}
	if err := p.submissionRepo.SetStatus(ctx, sub.ID, model.SubmissionProcessing); err != nil {
		return err
	}

	if err := p.run(ctx, sub); err != nil {
		if markErr := p.submissionRepo.MarkFailed(ctx, sub.ID, err.Error()); markErr != nil {
			log.Printf("ERROR: failed to mark submission %s failed: %v", sub.ID, markErr)
		}
		if errors.Is(err, common.ErrExternalService) {
			return err
		}
		log.Printf("WARN: submission %s failed terminally: %v", sub.ID, err)
		return nil
	}
	return nil
}

func (p *SubmissionProcessor) run(ctx context.Context, sub *model.Submission) error {
	user, err := p.userRepo.GetByID(ctx, sub.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUserNotReady, err)
	}
	if user.Status != model.UserActive || user.RepoFullName == nil || *user.RepoFullName == "" {
		return fmt.Errorf("%w: user %s has no linked repository", common.ErrUserNotReady, user.ID)
	}
	token, err := p.repoToken(user)
	if err != nil {
		return err
	}

	question, err := p.questionRepo.GetByID(ctx, sub.QuestionID)
	if err != nil {
		return err
	}

	group, err := p.groupRepo.FindActiveByGroupName(ctx, user.GroupName)
	if err != nil {
		return fmt.Errorf("%w: user %s group %q has no active sheet", common.ErrUserNotReady, user.ID, user.GroupName)
	}
	mapping, err := p.mappingRepo.FindByQuestionAndGroup(ctx, question.ID, group.ID)
	if err != nil {
		return fmt.Errorf("%w: question %s in group %s", common.ErrMappingMissing, question.ID, group.GroupName)
	}

	path := fmt.Sprintf("%s/%s.%s", question.Platform, question.QuestionKey, fileExtension(sub.Language))
	message := fmt.Sprintf("Add solution for %s", question.QuestionKey)
	commitURL, err := p.repoHost.UpsertFile(ctx, token, *user.RepoFullName, path, message, sub.Code)
	if err != nil {
		return fmt.Errorf("failed to commit %s to %s: %w: %v", path, *user.RepoFullName, common.ErrExternalService, err)
	}
	if commitURL == "" {
		return common.ErrCommitFailed
	}

	tabName := ""
	if question.PhaseID != nil {
		phase, err := p.phaseRepo.GetByID(ctx, *question.PhaseID)
		if err == nil {
			tabName = phase.TabName
		}
	}
	upd := gsheet.TrialTimeUpdate{
		TabName:     tabName,
		Row:         user.SheetRow,
		TrialColumn: mapping.TrialColumn,
		TimeColumn:  mapping.TimeColumn,
		TrialCount:  sub.TrialCount,
		TimeMinutes: sub.TimeMinutes,
		CommitURL:   commitURL,
	}
	if err := p.sheet.UpdateTrialAndTime(ctx, group.SheetID, upd); err != nil {
		return fmt.Errorf("failed to update sheet %s: %w: %v", group.SheetID, common.ErrExternalService, err)
	}

	return p.submissionRepo.MarkCompleted(ctx, sub.ID, commitURL)
}

// repoToken resolves the member's repository token, preferring the sealed
// form and falling back to legacy plaintext records.
func (p *SubmissionProcessor) repoToken(user *model.User) (string, error) {
	if user.RepoTokenEnc != nil && *user.RepoTokenEnc != "" {
		token, err := security.DecryptSecret(p.encryptionKey, *user.RepoTokenEnc)
		if err != nil {
			return "", fmt.Errorf("%w: cannot unseal token of user %s: %v", common.ErrUserNotReady, user.ID, err)
		}
		return token, nil
	}
	if user.RepoToken != nil && *user.RepoToken != "" {
		return *user.RepoToken, nil
	}
	return "", fmt.Errorf("%w: user %s has no repository token", common.ErrUserNotReady, user.ID)
}
