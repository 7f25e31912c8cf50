package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"codetrack/internal/common"
	"codetrack/internal/domain/model"
	"codetrack/internal/platform/gsheet"

	"github.com/google/uuid"
)

// fakeSheet is an in-memory SheetAccessor. Probe reads are served from
// rangeValues keyed by A1 range; writes are recorded for assertions.
type fakeSheet struct {
	mu          sync.Mutex
	tabs        map[string][]gsheet.Tab        // spreadsheetID -> tabs
	rangeValues map[string][][]string          // "sheetID|range" -> rows
	grids       map[string][][]gsheet.Cell     // "sheetID|tab" -> 5-row grid
	headerCards []gsheet.HeaderCard
	trialWrites []gsheet.TrialTimeUpdate
	writeErr    error
	trialErr    error
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{
		tabs:        make(map[string][]gsheet.Tab),
		rangeValues: make(map[string][][]string),
		grids:       make(map[string][][]gsheet.Cell),
	}
}

func (f *fakeSheet) setCell(sheetID, rng, value string) {
	f.rangeValues[sheetID+"|"+rng] = [][]string{{value}}
}

func (f *fakeSheet) ListTabs(_ context.Context, spreadsheetID string) ([]gsheet.Tab, error) {
	return f.tabs[spreadsheetID], nil
}

func (f *fakeSheet) ReadRange(_ context.Context, spreadsheetID, rng string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rangeValues[spreadsheetID+"|"+rng], nil
}

func (f *fakeSheet) ReadHeaderGrid(_ context.Context, spreadsheetID, tabName, _, _ string) ([][]gsheet.Cell, error) {
	grid, ok := f.grids[spreadsheetID+"|"+tabName]
	if !ok {
		return make([][]gsheet.Cell, 5), nil
	}
	return grid, nil
}

func (f *fakeSheet) WriteQuestionHeader(_ context.Context, spreadsheetID, tabName string, card gsheet.HeaderCard) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headerCards = append(f.headerCards, card)
	// The written title occupies row 5, so later probes see the column taken.
	f.setCell(spreadsheetID, fmt.Sprintf("'%s'!%s5:%s5", tabName, card.QuestionColumn, card.QuestionColumn), card.Title)
	return nil
}

func (f *fakeSheet) UpdateTrialAndTime(_ context.Context, _ string, upd gsheet.TrialTimeUpdate) error {
	if f.trialErr != nil {
		return f.trialErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trialWrites = append(f.trialWrites, upd)
	return nil
}

type fakeRepoHost struct {
	commitURL string
	err       error
	calls     []string // recorded as "repo|path|message"
	contents  map[string]string
}

func (f *fakeRepoHost) UpsertFile(_ context.Context, _, repoFullName, path, message, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, repoFullName+"|"+path+"|"+message)
	if f.contents == nil {
		f.contents = make(map[string]string)
	}
	f.contents[repoFullName+"/"+path] = content
	return f.commitURL, nil
}

type fakePhaseRepo struct {
	mu     sync.Mutex
	phases map[string]*model.Phase
}

func newFakePhaseRepo(phases ...*model.Phase) *fakePhaseRepo {
	r := &fakePhaseRepo{phases: make(map[string]*model.Phase)}
	for _, p := range phases {
		cp := *p
		r.phases[p.ID] = &cp
	}
	return r
}

func (r *fakePhaseRepo) Create(_ context.Context, p *model.Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.phases {
		if existing.MasterSheetID == p.MasterSheetID && existing.TabName == p.TabName {
			return fmt.Errorf("phase for tab %q: %w", p.TabName, common.ErrConflict)
		}
	}
	cp := *p
	r.phases[p.ID] = &cp
	return nil
}

func (r *fakePhaseRepo) GetByID(_ context.Context, id string) (*model.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.phases[id]
	if !ok {
		return nil, fmt.Errorf("phase %s: %w", id, common.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *fakePhaseRepo) FindByTabName(_ context.Context, masterSheetID, tabName string) (*model.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.phases {
		if p.MasterSheetID == masterSheetID && p.TabName == tabName {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("phase for tab %q: %w", tabName, common.ErrNotFound)
}

func (r *fakePhaseRepo) ListBySheet(_ context.Context, masterSheetID string, activeOnly bool) ([]model.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Phase
	for _, p := range r.phases {
		if p.MasterSheetID != masterSheetID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakePhaseRepo) List(ctx context.Context) ([]model.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Phase
	for _, p := range r.phases {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakePhaseRepo) Update(_ context.Context, p *model.Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.phases[p.ID]; !ok {
		return fmt.Errorf("phase %s: %w", p.ID, common.ErrNotFound)
	}
	cp := *p
	r.phases[p.ID] = &cp
	return nil
}

func (r *fakePhaseRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.phases, id)
	return nil
}

func (r *fakePhaseRepo) AdvanceWatermark(_ context.Context, id, column string, columnNum int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.phases[id]
	if !ok {
		return false, fmt.Errorf("phase %s: %w", id, common.ErrNotFound)
	}
	if p.LastQuestionColumn != nil && p.LastQuestionColumnNum >= columnNum {
		return false, nil
	}
	col := column
	p.LastQuestionColumn = &col
	p.LastQuestionColumnNum = columnNum
	return true, nil
}

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions map[string]*model.Question
}

func newFakeQuestionRepo(questions ...*model.Question) *fakeQuestionRepo {
	r := &fakeQuestionRepo{questions: make(map[string]*model.Question)}
	for _, q := range questions {
		cp := *q
		r.questions[q.ID] = &cp
	}
	return r
}

func (r *fakeQuestionRepo) Create(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.questions {
		if existing.Platform == q.Platform && existing.QuestionKey == q.QuestionKey {
			return fmt.Errorf("question %s/%s: %w", q.Platform, q.QuestionKey, common.ErrConflict)
		}
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	cp := *q
	r.questions[q.ID] = &cp
	return nil
}

func (r *fakeQuestionRepo) GetByID(_ context.Context, id string) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, common.ErrNotFound)
	}
	cp := *q
	return &cp, nil
}

func (r *fakeQuestionRepo) FindByPlatformKey(_ context.Context, platform model.Platform, key string) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.questions {
		if q.Platform == platform && q.QuestionKey == key {
			cp := *q
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("question %s/%s: %w", platform, key, common.ErrNotFound)
}

func (r *fakeQuestionRepo) ListByPhase(_ context.Context, phaseID string) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Question
	for _, q := range r.questions {
		if q.PhaseID != nil && *q.PhaseID == phaseID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) List(_ context.Context, phaseID *string) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Question
	for _, q := range r.questions {
		if phaseID != nil && (q.PhaseID == nil || *q.PhaseID != *phaseID) {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func (r *fakeQuestionRepo) CountByPhase(ctx context.Context, phaseID string) (int64, error) {
	qs, err := r.ListByPhase(ctx, phaseID)
	return int64(len(qs)), err
}

func (r *fakeQuestionRepo) Update(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; !ok {
		return fmt.Errorf("question %s: %w", q.ID, common.ErrNotFound)
	}
	cp := *q
	r.questions[q.ID] = &cp
	return nil
}

func (r *fakeQuestionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.questions, id)
	return nil
}

type fakeGroupRepo struct {
	mu     sync.Mutex
	groups map[string]*model.GroupSheet
}

func newFakeGroupRepo(groups ...*model.GroupSheet) *fakeGroupRepo {
	r := &fakeGroupRepo{groups: make(map[string]*model.GroupSheet)}
	for _, g := range groups {
		cp := *g
		r.groups[g.ID] = &cp
	}
	return r
}

func (r *fakeGroupRepo) Create(_ context.Context, g *model.GroupSheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.groups {
		if existing.GroupName == g.GroupName {
			return fmt.Errorf("group %q: %w", g.GroupName, common.ErrConflict)
		}
	}
	cp := *g
	r.groups[g.ID] = &cp
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id string) (*model.GroupSheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, fmt.Errorf("group sheet %s: %w", id, common.ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGroupRepo) FindActiveByGroupName(_ context.Context, groupName string) (*model.GroupSheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.groups {
		if g.GroupName == groupName && g.Active {
			cp := *g
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("active group %q: %w", groupName, common.ErrNotFound)
}

func (r *fakeGroupRepo) List(_ context.Context) ([]model.GroupSheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.GroupSheet
	for _, g := range r.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupName < out[j].GroupName })
	return out, nil
}

func (r *fakeGroupRepo) ListActive(ctx context.Context) ([]model.GroupSheet, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.GroupSheet
	for _, g := range all {
		if g.Active {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) Update(_ context.Context, g *model.GroupSheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[g.ID]; !ok {
		return fmt.Errorf("group sheet %s: %w", g.ID, common.ErrNotFound)
	}
	cp := *g
	r.groups[g.ID] = &cp
	return nil
}

func (r *fakeGroupRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, id)
	return nil
}

type fakeMappingRepo struct {
	mu       sync.Mutex
	mappings map[string]*model.QuestionGroupMapping // keyed questionID|groupID
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{mappings: make(map[string]*model.QuestionGroupMapping)}
}

func mappingKey(questionID, groupID string) string { return questionID + "|" + groupID }

func (r *fakeMappingRepo) Create(_ context.Context, m *model.QuestionGroupMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := mappingKey(m.QuestionID, m.GroupID)
	if _, ok := r.mappings[key]; ok {
		return fmt.Errorf("mapping: %w", common.ErrConflict)
	}
	cp := *m
	r.mappings[key] = &cp
	return nil
}

func (r *fakeMappingRepo) Upsert(_ context.Context, questionID, groupID, trialColumn, timeColumn string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := mappingKey(questionID, groupID)
	if _, ok := r.mappings[key]; ok {
		return false, nil
	}
	r.mappings[key] = &model.QuestionGroupMapping{
		ID:          uuid.NewString(),
		QuestionID:  questionID,
		GroupID:     groupID,
		TrialColumn: trialColumn,
		TimeColumn:  timeColumn,
	}
	return true, nil
}

func (r *fakeMappingRepo) FindByQuestionAndGroup(_ context.Context, questionID, groupID string) (*model.QuestionGroupMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mappings[mappingKey(questionID, groupID)]
	if !ok {
		return nil, fmt.Errorf("mapping for question %s and group %s: %w", questionID, groupID, common.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMappingRepo) List(_ context.Context) ([]model.QuestionGroupMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.QuestionGroupMapping
	for _, m := range r.mappings {
		out = append(out, *m)
	}
	return out, nil
}

func (r *fakeMappingRepo) Update(_ context.Context, m *model.QuestionGroupMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := mappingKey(m.QuestionID, m.GroupID)
	if _, ok := r.mappings[key]; !ok {
		return fmt.Errorf("mapping %s: %w", m.ID, common.ErrNotFound)
	}
	cp := *m
	r.mappings[key] = &cp
	return nil
}

func (r *fakeMappingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, m := range r.mappings {
		if m.ID == id {
			delete(r.mappings, key)
			return nil
		}
	}
	return nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*model.Submission
}

func newFakeSubmissionRepo(subs ...*model.Submission) *fakeSubmissionRepo {
	r := &fakeSubmissionRepo{submissions: make(map[string]*model.Submission)}
	for _, s := range subs {
		cp := *s
		r.submissions[s.ID] = &cp
	}
	return r
}

func (r *fakeSubmissionRepo) Create(_ context.Context, s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.submissions[s.ID] = &cp
	return nil
}

func (r *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubmissionRepo) ListByUser(_ context.Context, userID string, _ int64) ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Submission
	for _, s := range r.submissions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) SetStatus(_ context.Context, id string, status model.SubmissionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
	}
	s.Status = status
	return nil
}

func (r *fakeSubmissionRepo) MarkFailed(_ context.Context, id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
	}
	s.Status = model.SubmissionFailed
	msg := message
	s.ErrorMessage = &msg
	return nil
}

func (r *fakeSubmissionRepo) MarkCompleted(_ context.Context, id, commitURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
	}
	s.Status = model.SubmissionCompleted
	url := commitURL
	s.CommitURL = &url
	s.SheetUpdated = true
	s.ErrorMessage = nil
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user with email %q: %w", u.Email, common.ErrConflict)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, common.ErrNotFound)
}

func (r *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, common.ErrNotFound)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}
