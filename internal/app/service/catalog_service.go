package service

import (
	"context"
	"fmt"

	"codetrack/internal/common"
	"codetrack/internal/common/columns"
	"codetrack/internal/domain/model"
	"codetrack/internal/domain/repository"

	"github.com/google/uuid"
)

// CatalogService is the admin CRUD surface over phases, group sheets,
// questions and mappings.
type CatalogService struct {
	phaseRepo    repository.PhaseRepository
	questionRepo repository.QuestionRepository
	groupRepo    repository.GroupSheetRepository
	mappingRepo  repository.MappingRepository

	masterSheetID      string
	defaultStartColumn string
}

func NewCatalogService(
	phaseRepo repository.PhaseRepository,
	questionRepo repository.QuestionRepository,
	groupRepo repository.GroupSheetRepository,
	mappingRepo repository.MappingRepository,
	masterSheetID, defaultStartColumn string,
) *CatalogService {
	return &CatalogService{
		phaseRepo:          phaseRepo,
		questionRepo:       questionRepo,
		groupRepo:          groupRepo,
		mappingRepo:        mappingRepo,
		masterSheetID:      masterSheetID,
		defaultStartColumn: defaultStartColumn,
	}
}

type CreatePhaseInput struct {
	Name        string `json:"name" validate:"required"`
	TabName     string `json:"tab_name" validate:"required"`
	StartColumn string `json:"start_column"`
	Order       int    `json:"order"`
	Active      *bool  `json:"active"`
}

func (s *CatalogService) CreatePhase(ctx context.Context, in CreatePhaseInput) (*model.Phase, error) {
	startColumn := in.StartColumn
	if startColumn == "" {
		startColumn = s.defaultStartColumn
	}
	if _, err := columns.ToNumber(startColumn); err != nil {
		return nil, fmt.Errorf("invalid start column %q: %w", startColumn, common.ErrValidation)
	}

	phase := &model.Phase{
		ID:            uuid.NewString(),
		Name:          in.Name,
		TabName:       in.TabName,
		MasterSheetID: s.masterSheetID,
		StartColumn:   startColumn,
		Order:         in.Order,
		Active:        true,
	}
	if in.Active != nil {
		phase.Active = *in.Active
	}
	if err := s.phaseRepo.Create(ctx, phase); err != nil {
		return nil, err
	}
	return phase, nil
}

func (s *CatalogService) GetPhase(ctx context.Context, id string) (*model.Phase, error) {
	return s.phaseRepo.GetByID(ctx, id)
}

func (s *CatalogService) ListPhases(ctx context.Context) ([]model.Phase, error) {
	return s.phaseRepo.ListBySheet(ctx, s.masterSheetID, false)
}

type UpdatePhaseInput struct {
	Name   *string `json:"name"`
	Order  *int    `json:"order"`
	Active *bool   `json:"active"`
}

// UpdatePhase changes the mutable phase fields. The tab binding and the
// watermark are not editable through the API.
func (s *CatalogService) UpdatePhase(ctx context.Context, id string, in UpdatePhaseInput) (*model.Phase, error) {
	phase, err := s.phaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		phase.Name = *in.Name
	}
	if in.Order != nil {
		phase.Order = *in.Order
	}
	if in.Active != nil {
		phase.Active = *in.Active
	}
	if err := s.phaseRepo.Update(ctx, phase); err != nil {
		return nil, err
	}
	return phase, nil
}

func (s *CatalogService) DeletePhase(ctx context.Context, id string) error {
	if _, err := s.phaseRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.phaseRepo.Delete(ctx, id)
}

type CreateGroupInput struct {
	GroupName    string `json:"group_name" validate:"required"`
	SheetID      string `json:"sheet_id" validate:"required"`
	NameColumn   string `json:"name_column" validate:"required"`
	NameStartRow int    `json:"name_start_row" validate:"min=1"`
	NameEndRow   int    `json:"name_end_row" validate:"min=1"`
}

func (s *CatalogService) CreateGroup(ctx context.Context, in CreateGroupInput) (*model.GroupSheet, error) {
	if _, err := columns.ToNumber(in.NameColumn); err != nil {
		return nil, fmt.Errorf("invalid name column %q: %w", in.NameColumn, common.ErrValidation)
	}
	if in.NameEndRow < in.NameStartRow {
		return nil, fmt.Errorf("member range %d-%d is empty: %w", in.NameStartRow, in.NameEndRow, common.ErrValidation)
	}
	group := &model.GroupSheet{
		ID:           uuid.NewString(),
		GroupName:    in.GroupName,
		SheetID:      in.SheetID,
		NameColumn:   in.NameColumn,
		NameStartRow: in.NameStartRow,
		NameEndRow:   in.NameEndRow,
		Active:       true,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *CatalogService) ListGroups(ctx context.Context) ([]model.GroupSheet, error) {
	return s.groupRepo.List(ctx)
}

type UpdateGroupInput struct {
	SheetID      *string `json:"sheet_id"`
	NameColumn   *string `json:"name_column"`
	NameStartRow *int    `json:"name_start_row"`
	NameEndRow   *int    `json:"name_end_row"`
	Active       *bool   `json:"active"`
}

func (s *CatalogService) UpdateGroup(ctx context.Context, id string, in UpdateGroupInput) (*model.GroupSheet, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.SheetID != nil {
		group.SheetID = *in.SheetID
	}
	if in.NameColumn != nil {
		if _, err := columns.ToNumber(*in.NameColumn); err != nil {
			return nil, fmt.Errorf("invalid name column %q: %w", *in.NameColumn, common.ErrValidation)
		}
		group.NameColumn = *in.NameColumn
	}
	if in.NameStartRow != nil {
		group.NameStartRow = *in.NameStartRow
	}
	if in.NameEndRow != nil {
		group.NameEndRow = *in.NameEndRow
	}
	if in.Active != nil {
		group.Active = *in.Active
	}
	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *CatalogService) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.groupRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.groupRepo.Delete(ctx, id)
}

func (s *CatalogService) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

func (s *CatalogService) ListQuestions(ctx context.Context, phaseID *string) ([]model.Question, error) {
	return s.questionRepo.List(ctx, phaseID)
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, id string) error {
	if _, err := s.questionRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.questionRepo.Delete(ctx, id)
}

func (s *CatalogService) ListMappings(ctx context.Context) ([]model.QuestionGroupMapping, error) {
	return s.mappingRepo.List(ctx)
}
