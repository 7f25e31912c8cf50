package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"codetrack/internal/common"
	"codetrack/internal/common/security"
	"codetrack/internal/domain/model"
	"codetrack/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// UserService registers students and resolves their row inside the group
// sheet's member name range.
type UserService struct {
	userRepo      repository.UserRepository
	groupRepo     repository.GroupSheetRepository
	sheet         SheetAccessor
	encryptionKey []byte
}

func NewUserService(userRepo repository.UserRepository, groupRepo repository.GroupSheetRepository, sheet SheetAccessor, encryptionKey []byte) *UserService {
	return &UserService{
		userRepo:      userRepo,
		groupRepo:     groupRepo,
		sheet:         sheet,
		encryptionKey: encryptionKey,
	}
}

type CreateUserInput struct {
	FullName     string `json:"full_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	GroupName    string `json:"group_name" validate:"required"`
	RepoUsername string `json:"repo_username"`
	RepoFullName string `json:"repo_full_name"`
	RepoToken    string `json:"repo_token"`
	Role         string `json:"role" validate:"omitempty,oneof=user admin"`
}

// CreateUser registers a student. Their sheet row is located by name in the
// group sheet's member range, with a fuzzy fallback for spelling drift
// between the registration form and the sheet. The repo token, when given,
// is stored sealed.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	group, err := s.groupRepo.FindActiveByGroupName(ctx, in.GroupName)
	if err != nil {
		return nil, err
	}
	row, err := s.resolveMemberRow(ctx, group, in.FullName)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        uuid.NewString(),
		FullName:  in.FullName,
		Email:     in.Email,
		GroupName: in.GroupName,
		SheetRow:  row,
		Status:    model.UserPendingRepo,
		Role:      model.RoleUser,
	}
	if in.Role != "" {
		user.Role = in.Role
	}
	if in.RepoUsername != "" {
		user.RepoUsername = &in.RepoUsername
	}
	if in.RepoFullName != "" && in.RepoToken != "" {
		sealed, err := security.EncryptSecret(s.encryptionKey, in.RepoToken)
		if err != nil {
			return nil, fmt.Errorf("failed to seal repo token: %w", err)
		}
		user.RepoFullName = &in.RepoFullName
		user.RepoTokenEnc = &sealed
		user.Status = model.UserActive
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// resolveMemberRow finds the student's row in the group sheet member range.
// Exact case-insensitive match wins; otherwise the closest fuzzy match does.
func (s *UserService) resolveMemberRow(ctx context.Context, group *model.GroupSheet, fullName string) (int, error) {
	rng := fmt.Sprintf("%s%d:%s%d", group.NameColumn, group.NameStartRow, group.NameColumn, group.NameEndRow)
	rows, err := s.sheet.ReadRange(ctx, group.SheetID, rng)
	if err != nil {
		return 0, fmt.Errorf("failed to read member names of group %s: %w: %v", group.GroupName, common.ErrExternalService, err)
	}

	names := make([]string, len(rows))
	for i, r := range rows {
		if len(r) > 0 {
			names[i] = strings.TrimSpace(r[0])
		}
	}

	for i, name := range names {
		if name != "" && strings.EqualFold(name, strings.TrimSpace(fullName)) {
			return group.NameStartRow + i, nil
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(fullName), names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		best := ranks[0]
		log.Printf("WARN: no exact member match for %q in group %s, using %q", fullName, group.GroupName, best.Target)
		return group.NameStartRow + best.OriginalIndex, nil
	}

	return 0, fmt.Errorf("member %q not listed in group sheet %s: %w", fullName, group.GroupName, common.ErrNotFound)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}
