package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"codetrack/internal/common"
	"codetrack/internal/common/columns"
	"codetrack/internal/domain/model"
	"codetrack/internal/domain/repository"
	"codetrack/internal/platform/gsheet"

	"github.com/google/uuid"
)

// maxColumnProbes bounds the forward scan for a free question column.
const maxColumnProbes = 50

// MasterSheetService owns question-column allocation on the master
// spreadsheet: it finds the next free column pair on a phase tab, writes the
// question header there, and fans the question out to the active group sheets.
type MasterSheetService struct {
	phaseRepo    repository.PhaseRepository
	questionRepo repository.QuestionRepository
	groupRepo    repository.GroupSheetRepository
	mappingRepo  repository.MappingRepository
	sheet        SheetAccessor

	// Allocation is serialized per phase so two concurrent adds cannot probe
	// the same column before either has written its header.
	mu         sync.Mutex
	phaseLocks map[string]*sync.Mutex
}

func NewMasterSheetService(
	phaseRepo repository.PhaseRepository,
	questionRepo repository.QuestionRepository,
	groupRepo repository.GroupSheetRepository,
	mappingRepo repository.MappingRepository,
	sheet SheetAccessor,
) *MasterSheetService {
	return &MasterSheetService{
		phaseRepo:    phaseRepo,
		questionRepo: questionRepo,
		groupRepo:    groupRepo,
		mappingRepo:  mappingRepo,
		sheet:        sheet,
		phaseLocks:   make(map[string]*sync.Mutex),
	}
}

func (s *MasterSheetService) lockPhase(phaseID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.phaseLocks[phaseID]
	if !ok {
		lock = &sync.Mutex{}
		s.phaseLocks[phaseID] = lock
	}
	return lock
}

// AddQuestionInput is the admin request to place a question on a phase tab.
type AddQuestionInput struct {
	PhaseID     string   `json:"phase_id" validate:"required"`
	Platform    string   `json:"platform" validate:"required"`
	QuestionKey string   `json:"question_key" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	URL         string   `json:"url" validate:"omitempty,url"`
	Difficulty  string   `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	Tags        []string `json:"tags"`
}

// PreviewNextColumn reports the column pair the next allocation on the phase
// would use, probing the sheet the same way AddQuestionToSheet does.
func (s *MasterSheetService) PreviewNextColumn(ctx context.Context, phaseID string) (questionColumn, timeColumn string, err error) {
	phase, err := s.phaseRepo.GetByID(ctx, phaseID)
	if err != nil {
		return "", "", err
	}
	return s.findFreeColumns(ctx, phase)
}

// AddQuestionToSheet allocates the next free column pair on the phase tab,
// writes the question header card, persists the question and its per-group
// mappings, and advances the phase watermark.
func (s *MasterSheetService) AddQuestionToSheet(ctx context.Context, in AddQuestionInput) (*model.Question, error) {
	platform := model.Platform(in.Platform)
	if !model.KnownPlatforms[platform] {
		return nil, fmt.Errorf("unknown platform %q: %w", in.Platform, common.ErrValidation)
	}
	if existing, err := s.questionRepo.FindByPlatformKey(ctx, platform, in.QuestionKey); err == nil && existing != nil {
		return nil, fmt.Errorf("question %s/%s already exists: %w", platform, in.QuestionKey, common.ErrConflict)
	}

	phase, err := s.phaseRepo.GetByID(ctx, in.PhaseID)
	if err != nil {
		return nil, err
	}

	lock := s.lockPhase(phase.ID)
	lock.Lock()
	defer lock.Unlock()

	questionCol, timeCol, err := s.findFreeColumns(ctx, phase)
	if err != nil {
		return nil, err
	}

	card := gsheet.HeaderCard{
		QuestionColumn: questionCol,
		TimeColumn:     timeCol,
		Title:          in.Title,
		URL:            in.URL,
		Difficulty:     in.Difficulty,
		Platform:       in.Platform,
		Tags:           in.Tags,
	}
	if err := s.sheet.WriteQuestionHeader(ctx, phase.MasterSheetID, phase.TabName, card); err != nil {
		return nil, fmt.Errorf("failed to write question header: %w: %v", common.ErrExternalService, err)
	}

	question := &model.Question{
		ID:           uuid.NewString(),
		Platform:     platform,
		QuestionKey:  in.QuestionKey,
		Title:        in.Title,
		URL:          in.URL,
		Tags:         in.Tags,
		PhaseID:      &phase.ID,
		MasterColumn: &questionCol,
		TimeColumn:   &timeCol,
	}
	if in.Difficulty != "" {
		question.Difficulty = &in.Difficulty
	}
	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}

	if err := s.fanOutMappings(ctx, question, questionCol, timeCol); err != nil {
		return nil, err
	}

	qNum, err := columns.ToNumber(questionCol)
	if err != nil {
		return nil, err
	}
	advanced, err := s.phaseRepo.AdvanceWatermark(ctx, phase.ID, questionCol, qNum)
	if err != nil {
		return nil, err
	}
	if !advanced {
		log.Printf("INFO: watermark of phase %s already at or past %s", phase.ID, questionCol)
	}
	return question, nil
}

// findFreeColumns starts at the pair after the watermark and scans forward in
// steps of two until the question cell in row 5 is empty.
func (s *MasterSheetService) findFreeColumns(ctx context.Context, phase *model.Phase) (string, string, error) {
	last := ""
	if phase.LastQuestionColumn != nil {
		last = *phase.LastQuestionColumn
	}
	questionCol, timeCol, err := columns.NextQuestionPair(last, phase.StartColumn)
	if err != nil {
		return "", "", err
	}

	for attempt := 0; attempt < maxColumnProbes; attempt++ {
		occupied, err := s.columnOccupied(ctx, phase, questionCol)
		if err != nil {
			return "", "", err
		}
		if !occupied {
			return questionCol, timeCol, nil
		}
		questionCol, timeCol, err = columns.NextQuestionPair(questionCol, phase.StartColumn)
		if err != nil {
			return "", "", err
		}
	}
	return "", "", fmt.Errorf("no free column on tab %q after %d probes: %w",
		phase.TabName, maxColumnProbes, common.ErrColumnExhausted)
}

func (s *MasterSheetService) columnOccupied(ctx context.Context, phase *model.Phase, col string) (bool, error) {
	rng := fmt.Sprintf("'%s'!%s5:%s5", phase.TabName, col, col)
	rows, err := s.sheet.ReadRange(ctx, phase.MasterSheetID, rng)
	if err != nil {
		return false, fmt.Errorf("failed to probe column %s: %w: %v", col, common.ErrExternalService, err)
	}
	return len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] != "", nil
}

// fanOutMappings upserts the (question, group) mapping for every active
// group. Duplicate mappings are left untouched.
func (s *MasterSheetService) fanOutMappings(ctx context.Context, q *model.Question, trialCol, timeCol string) error {
	groups, err := s.groupRepo.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		created, err := s.mappingRepo.Upsert(ctx, q.ID, g.ID, trialCol, timeCol)
		if err != nil {
			return fmt.Errorf("failed to map question %s to group %s: %w", q.ID, g.GroupName, err)
		}
		if !created {
			log.Printf("INFO: mapping of question %s to group %s already exists", q.ID, g.GroupName)
		}
	}
	return nil
}
