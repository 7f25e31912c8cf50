package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"codetrack/internal/common"
	"codetrack/internal/common/columns"
	"codetrack/internal/domain/model"
	"codetrack/internal/domain/repository"
	"codetrack/internal/platform/gsheet"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// SyncService reconciles the master spreadsheet with the database. Detection
// is read-only and produces a report; approval commits the report. Both sides
// are idempotent, so running detect or approve twice changes nothing.
type SyncService struct {
	phaseRepo    repository.PhaseRepository
	questionRepo repository.QuestionRepository
	groupRepo    repository.GroupSheetRepository
	mappingRepo  repository.MappingRepository
	sheet        SheetAccessor

	masterSheetID      string
	defaultStartColumn string
}

func NewSyncService(
	phaseRepo repository.PhaseRepository,
	questionRepo repository.QuestionRepository,
	groupRepo repository.GroupSheetRepository,
	mappingRepo repository.MappingRepository,
	sheet SheetAccessor,
	masterSheetID, defaultStartColumn string,
) *SyncService {
	return &SyncService{
		phaseRepo:          phaseRepo,
		questionRepo:       questionRepo,
		groupRepo:          groupRepo,
		mappingRepo:        mappingRepo,
		sheet:              sheet,
		masterSheetID:      masterSheetID,
		defaultStartColumn: defaultStartColumn,
	}
}

// SyncReport is the outcome of a detection pass.
type SyncReport struct {
	MasterSheetID string              `json:"master_sheet_id"`
	NewTabs       []NewTab            `json:"new_tabs"`
	Questions     []QuestionCandidate `json:"questions"`
	Warnings      []Warning           `json:"warnings"`
}

// NewTab is a master-sheet tab with no registered phase.
type NewTab struct {
	TabName     string `json:"tab_name"`
	StartColumn string `json:"start_column"`
}

// QuestionCandidate is a question card found on the sheet but absent from the
// database.
type QuestionCandidate struct {
	TabName        string   `json:"tab_name"`
	QuestionColumn string   `json:"question_column"`
	TimeColumn     string   `json:"time_column"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Platform       string   `json:"platform"`
	QuestionKey    string   `json:"question_key"`
	Difficulty     string   `json:"difficulty"`
	Tags           []string `json:"tags"`
}

// Warning flags a card the detector could not fully resolve.
type Warning struct {
	TabName string `json:"tab_name"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

// ApprovalResult summarizes what an approval pass committed.
type ApprovalResult struct {
	PhasesCreated    int `json:"phases_created"`
	QuestionsCreated int `json:"questions_created"`
	MappingsCreated  int `json:"mappings_created"`
}

// TabHealth is the per-group result of a tab consistency check.
type TabHealth struct {
	GroupName   string   `json:"group_name"`
	SheetID     string   `json:"sheet_id"`
	MissingTabs []string `json:"missing_tabs"`
	Error       string   `json:"error,omitempty"`
}

// DetectChanges scans every tab of the master sheet and reports unregistered
// tabs and question cards not yet in the database. It writes nothing.
func (s *SyncService) DetectChanges(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{
		MasterSheetID: s.masterSheetID,
		NewTabs:       []NewTab{},
		Questions:     []QuestionCandidate{},
		Warnings:      []Warning{},
	}

	tabs, err := s.sheet.ListTabs(ctx, s.masterSheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list master sheet tabs: %w: %v", common.ErrExternalService, err)
	}

	for _, tab := range tabs {
		phase, err := s.phaseRepo.FindByTabName(ctx, s.masterSheetID, tab.Title)
		if err != nil {
			if !isNotFound(err) {
				return nil, err
			}
			report.NewTabs = append(report.NewTabs, NewTab{TabName: tab.Title, StartColumn: s.defaultStartColumn})
			if err := s.scanTab(ctx, report, tab.Title, s.defaultStartColumn, tab.ColumnCount, nil); err != nil {
				return nil, err
			}
			continue
		}
		seen, err := s.knownQuestionKeys(ctx, phase.ID)
		if err != nil {
			return nil, err
		}
		if err := s.scanTab(ctx, report, tab.Title, phase.StartColumn, tab.ColumnCount, seen); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func isNotFound(err error) bool {
	return err != nil && common.HTTPStatusFromError(err) == 404
}

func (s *SyncService) knownQuestionKeys(ctx context.Context, phaseID string) (map[string]bool, error) {
	questions, err := s.questionRepo.ListByPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		seen[string(q.Platform)+"|"+q.QuestionKey] = true
	}
	return seen, nil
}

// scanTab walks the question columns of one tab and appends candidates and
// warnings to the report. seen may be nil for unregistered tabs.
func (s *SyncService) scanTab(ctx context.Context, report *SyncReport, tabName, startColumn string, columnCount int, seen map[string]bool) error {
	startNum, err := columns.ToNumber(startColumn)
	if err != nil {
		return err
	}
	if columnCount < startNum+1 {
		return nil
	}
	endColumn, err := columns.ToLetters(columnCount)
	if err != nil {
		return err
	}

	grid, err := s.sheet.ReadHeaderGrid(ctx, s.masterSheetID, tabName, startColumn, endColumn)
	if err != nil {
		return fmt.Errorf("failed to read header grid of %q: %w: %v", tabName, common.ErrExternalService, err)
	}

	for qNum := startNum; qNum+1 <= columnCount; qNum += 2 {
		qIdx, tIdx := qNum-startNum, qNum-startNum+1
		qCell := gridCell(grid, 4, qIdx)
		tCell := gridCell(grid, 4, tIdx)
		if !isQuestionCard(qCell, tCell) {
			continue
		}
		qCol, err := columns.ToLetters(qNum)
		if err != nil {
			return err
		}
		tCol, err := columns.ToLetters(qNum + 1)
		if err != nil {
			return err
		}

		candidate := s.buildCandidate(report, tabName, qCol, tCol, grid, qIdx)
		if candidate == nil {
			continue
		}
		if seen != nil && seen[candidate.Platform+"|"+candidate.QuestionKey] {
			continue
		}
		report.Questions = append(report.Questions, *candidate)
	}
	return nil
}

func gridCell(grid [][]gsheet.Cell, row, col int) gsheet.Cell {
	if row >= len(grid) || col >= len(grid[row]) {
		return gsheet.Cell{}
	}
	return grid[row][col]
}

// isQuestionCard decides whether a column pair holds a question header. The
// title lives in row 5 of the question column; the paired time cell is either
// empty or carries the "⏱ min" label. A number there means the pair is a
// member tracking column on a group sheet layout, not a card.
func isQuestionCard(qCell, tCell gsheet.Cell) bool {
	if qCell.Value == "" {
		return false
	}
	if tCell.Value == "" {
		return true
	}
	lower := strings.ToLower(tCell.Value)
	return strings.Contains(lower, "min") || strings.Contains(tCell.Value, "⏱")
}

var hyperlinkFormulaRe = regexp.MustCompile(`(?i)=HYPERLINK\(\s*"([^"]*)"`)

func (s *SyncService) buildCandidate(report *SyncReport, tabName, qCol, tCol string, grid [][]gsheet.Cell, qIdx int) *QuestionCandidate {
	titleCell := gridCell(grid, 4, qIdx)
	title := titleCell.Value

	rawURL := titleCell.Hyperlink
	if rawURL == "" && titleCell.Formula != "" {
		if m := hyperlinkFormulaRe.FindStringSubmatch(titleCell.Formula); m != nil {
			rawURL = m[1]
		}
	}
	if rawURL == "" {
		report.Warnings = append(report.Warnings, Warning{
			TabName: tabName, Column: qCol,
			Message: fmt.Sprintf("question %q has no URL", title),
		})
	}

	platform := normalizePlatform(gridCell(grid, 3, qIdx).Value)
	if platform == "" {
		platform = platformFromURL(rawURL)
	}
	if platform == "" {
		report.Warnings = append(report.Warnings, Warning{
			TabName: tabName, Column: qCol,
			Message: fmt.Sprintf("question %q has no recognizable platform", title),
		})
		return nil
	}

	key := extractQuestionKey(rawURL)
	if key == "" {
		key = slug.Make(title)
	}
	if key == "" {
		report.Warnings = append(report.Warnings, Warning{
			TabName: tabName, Column: qCol,
			Message: fmt.Sprintf("question %q has no derivable key", title),
		})
		return nil
	}

	return &QuestionCandidate{
		TabName:        tabName,
		QuestionColumn: qCol,
		TimeColumn:     tCol,
		Title:          title,
		URL:            rawURL,
		Platform:       platform,
		QuestionKey:    key,
		Difficulty:     normalizeDifficulty(gridCell(grid, 0, qIdx).Value),
		Tags:           parseTags(gridCell(grid, 2, qIdx).Value),
	}
}

// platformAliases maps sheet spellings to canonical platform tags.
var platformAliases = map[string]string{
	"leetcode":      "leetcode",
	"leet code":     "leetcode",
	"lc":            "leetcode",
	"codeforces":    "codeforces",
	"code forces":   "codeforces",
	"cf":            "codeforces",
	"hackerrank":    "hackerrank",
	"hacker rank":   "hackerrank",
	"hr":            "hackerrank",
	"atcoder":       "atcoder",
	"at coder":      "atcoder",
	"geeksforgeeks": "geeksforgeeks",
	"geeks4geeks":   "geeksforgeeks",
	"gfg":           "geeksforgeeks",
}

func normalizePlatform(s string) string {
	return platformAliases[strings.ToLower(strings.TrimSpace(s))]
}

func platformFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "leetcode"):
		return "leetcode"
	case strings.Contains(host, "codeforces"):
		return "codeforces"
	case strings.Contains(host, "hackerrank"):
		return "hackerrank"
	case strings.Contains(host, "atcoder"):
		return "atcoder"
	case strings.Contains(host, "geeksforgeeks"):
		return "geeksforgeeks"
	}
	return ""
}

// extractQuestionKey pulls the problem slug out of a platform URL: the path
// segment after /challenges/ or /problems/, else the last non-empty segment.
func extractQuestionKey(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if (seg == "challenges" || seg == "problems") && i+1 < len(segments) && segments[i+1] != "" {
			return segments[i+1]
		}
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

func normalizeDifficulty(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return model.DifficultyEasy
	case "medium":
		return model.DifficultyMedium
	case "hard":
		return model.DifficultyHard
	}
	return ""
}

// parseTags splits the tag cell on commas and slashes.
func parseTags(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' })
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ApproveChanges commits a detection report: registers the new tabs as
// phases, creates the candidate questions, fans out group mappings, and
// advances each phase watermark to the highest column touched. Every step
// skips what already exists, so re-approving the same report is a no-op.
func (s *SyncService) ApproveChanges(ctx context.Context, report *SyncReport) (*ApprovalResult, error) {
	result := &ApprovalResult{}

	for _, nt := range report.NewTabs {
		created, err := s.ensurePhase(ctx, nt.TabName, nt.StartColumn)
		if err != nil {
			return nil, err
		}
		if created {
			result.PhasesCreated++
		}
	}

	groups, err := s.groupRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	// Highest question column committed per phase, in column-number space.
	watermarks := make(map[string]int)
	phaseColumns := make(map[string]string)

	for _, cand := range report.Questions {
		phase, err := s.phaseRepo.FindByTabName(ctx, s.masterSheetID, cand.TabName)
		if err != nil {
			if !isNotFound(err) {
				return nil, err
			}
			if _, err := s.ensurePhase(ctx, cand.TabName, s.defaultStartColumn); err != nil {
				return nil, err
			}
			result.PhasesCreated++
			phase, err = s.phaseRepo.FindByTabName(ctx, s.masterSheetID, cand.TabName)
			if err != nil {
				return nil, err
			}
		}

		question, err := s.ensureQuestion(ctx, phase, cand)
		if err != nil {
			return nil, err
		}
		if question.created {
			result.QuestionsCreated++
		}

		for _, g := range groups {
			created, err := s.mappingRepo.Upsert(ctx, question.id, g.ID, cand.QuestionColumn, cand.TimeColumn)
			if err != nil {
				return nil, err
			}
			if created {
				result.MappingsCreated++
			}
		}

		qNum, err := columns.ToNumber(cand.QuestionColumn)
		if err != nil {
			return nil, err
		}
		if qNum > watermarks[phase.ID] {
			watermarks[phase.ID] = qNum
			phaseColumns[phase.ID] = cand.QuestionColumn
		}
	}

	for phaseID, num := range watermarks {
		if _, err := s.phaseRepo.AdvanceWatermark(ctx, phaseID, phaseColumns[phaseID], num); err != nil {
			return nil, err
		}
	}

	log.Printf("INFO: sync approval committed: %d phases, %d questions, %d mappings",
		result.PhasesCreated, result.QuestionsCreated, result.MappingsCreated)
	return result, nil
}

func (s *SyncService) ensurePhase(ctx context.Context, tabName, startColumn string) (bool, error) {
	if _, err := s.phaseRepo.FindByTabName(ctx, s.masterSheetID, tabName); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, err
	}
	phase := &model.Phase{
		ID:            uuid.NewString(),
		Name:          tabName,
		TabName:       tabName,
		MasterSheetID: s.masterSheetID,
		StartColumn:   startColumn,
		Active:        true,
	}
	if err := s.phaseRepo.Create(ctx, phase); err != nil {
		// Lost a race with a concurrent approval; the phase exists now.
		if common.HTTPStatusFromError(err) == 409 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type ensuredQuestion struct {
	id      string
	created bool
}

func (s *SyncService) ensureQuestion(ctx context.Context, phase *model.Phase, cand QuestionCandidate) (*ensuredQuestion, error) {
	platform := model.Platform(cand.Platform)
	if existing, err := s.questionRepo.FindByPlatformKey(ctx, platform, cand.QuestionKey); err == nil {
		return &ensuredQuestion{id: existing.ID}, nil
	} else if !isNotFound(err) {
		return nil, err
	}

	q := &model.Question{
		ID:           uuid.NewString(),
		Platform:     platform,
		QuestionKey:  cand.QuestionKey,
		Title:        cand.Title,
		URL:          cand.URL,
		Tags:         cand.Tags,
		PhaseID:      &phase.ID,
		MasterColumn: &cand.QuestionColumn,
		TimeColumn:   &cand.TimeColumn,
	}
	if cand.Difficulty != "" {
		d := cand.Difficulty
		q.Difficulty = &d
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		if common.HTTPStatusFromError(err) == 409 {
			existing, ferr := s.questionRepo.FindByPlatformKey(ctx, platform, cand.QuestionKey)
			if ferr != nil {
				return nil, ferr
			}
			return &ensuredQuestion{id: existing.ID}, nil
		}
		return nil, err
	}
	return &ensuredQuestion{id: q.ID, created: true}, nil
}

// CheckGroupTabs verifies that every active group sheet carries a tab for
// each registered phase of the master sheet.
func (s *SyncService) CheckGroupTabs(ctx context.Context) ([]TabHealth, error) {
	phases, err := s.phaseRepo.ListBySheet(ctx, s.masterSheetID, true)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]TabHealth, 0, len(groups))
	for _, g := range groups {
		health := TabHealth{GroupName: g.GroupName, SheetID: g.SheetID, MissingTabs: []string{}}
		tabs, err := s.sheet.ListTabs(ctx, g.SheetID)
		if err != nil {
			health.Error = err.Error()
			results = append(results, health)
			continue
		}
		present := make(map[string]bool, len(tabs))
		for _, t := range tabs {
			present[t.Title] = true
		}
		for _, p := range phases {
			if !present[p.TabName] {
				health.MissingTabs = append(health.MissingTabs, p.TabName)
			}
		}
		results = append(results, health)
	}
	return results, nil
}
