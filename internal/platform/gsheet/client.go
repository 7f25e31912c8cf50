// Package gsheet wraps the Google Sheets v4 API behind the handful of
// operations the tracker needs: tab listing, range/grid reads, batched value
// writes, and the formatted question-header write. All calls go through a
// shared rate limiter to stay inside the Sheets API quota.
package gsheet

import (
	"context"
	"fmt"
	"strings"

	"codetrack/internal/common/columns"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc     *sheets.Service
	limiter *rate.Limiter
}

// Tab is one sheet inside a spreadsheet.
type Tab struct {
	Title       string
	GID         int64
	ColumnCount int
}

// Cell is the subset of grid metadata the sync engine reads.
type Cell struct {
	Value     string // formatted value, trimmed
	Hyperlink string
	Formula   string // user-entered formula, if any
}

// ValueUpdate addresses one cell in A1 notation.
type ValueUpdate struct {
	Range string
	Value interface{}
}

func NewClient(ctx context.Context, serviceAccountKey []byte, perSecond float64) (*Client, error) {
	if len(serviceAccountKey) == 0 {
		return nil, fmt.Errorf("google service account key is not configured")
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(serviceAccountKey),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Client{svc: svc, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}, nil
}

func (c *Client) ListTabs(ctx context.Context, spreadsheetID string) ([]Tab, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs of %s: %w", spreadsheetID, err)
	}
	tabs := make([]Tab, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		tab := Tab{Title: s.Properties.Title, GID: s.Properties.SheetId}
		if s.Properties.GridProperties != nil {
			tab.ColumnCount = int(s.Properties.GridProperties.ColumnCount)
		}
		tabs = append(tabs, tab)
	}
	return tabs, nil
}

// ReadRange returns the cell values of an A1 range as strings.
func (c *Client) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%v", v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// ReadHeaderGrid reads the five header rows of a tab between startColumn and
// endColumn, returning per-cell formatted value, hyperlink and formula.
func (c *Client) ReadHeaderGrid(ctx context.Context, spreadsheetID, tabName, startColumn, endColumn string) ([][]Cell, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("'%s'!%s1:%s5", tabName, startColumn, endColumn)
	resp, err := c.svc.Spreadsheets.Get(spreadsheetID).
		Ranges(rng).
		IncludeGridData(true).
		Fields("sheets.data.rowData.values(formattedValue,hyperlink,userEnteredValue)").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read header grid %s: %w", rng, err)
	}

	grid := make([][]Cell, 5)
	if len(resp.Sheets) == 0 || len(resp.Sheets[0].Data) == 0 {
		return grid, nil
	}
	for r, rowData := range resp.Sheets[0].Data[0].RowData {
		if r >= 5 {
			break
		}
		row := make([]Cell, len(rowData.Values))
		for i, cd := range rowData.Values {
			if cd == nil {
				continue
			}
			cell := Cell{
				Value:     strings.TrimSpace(cd.FormattedValue),
				Hyperlink: cd.Hyperlink,
			}
			if cd.UserEnteredValue != nil && cd.UserEnteredValue.FormulaValue != nil {
				cell.Formula = *cd.UserEnteredValue.FormulaValue
			}
			row[i] = cell
		}
		grid[r] = row
	}
	return grid, nil
}

// WriteValues performs one batched USER_ENTERED value update.
func (c *Client) WriteValues(ctx context.Context, spreadsheetID string, updates []ValueUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	data := make([]*sheets.ValueRange, len(updates))
	for i, u := range updates {
		data[i] = &sheets.ValueRange{
			Range:  u.Range,
			Values: [][]interface{}{{u.Value}},
		}
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to batch write values to %s: %w", spreadsheetID, err)
	}
	return nil
}

func (c *Client) tabGID(ctx context.Context, spreadsheetID, tabName string) (int64, error) {
	tabs, err := c.ListTabs(ctx, spreadsheetID)
	if err != nil {
		return 0, err
	}
	for _, tab := range tabs {
		if tab.Title == tabName {
			return tab.GID, nil
		}
	}
	return 0, fmt.Errorf("tab %q not found in spreadsheet %s", tabName, spreadsheetID)
}

// UpdateTrialAndTime writes the trial-count hyperlink formula and the elapsed
// minutes into a member's row of a group sheet.
func (c *Client) UpdateTrialAndTime(ctx context.Context, spreadsheetID string, upd TrialTimeUpdate) error {
	prefix := ""
	if upd.TabName != "" {
		prefix = fmt.Sprintf("'%s'!", upd.TabName)
	}
	trialFormula := fmt.Sprintf(`=HYPERLINK(%q, %q)`, upd.CommitURL, fmt.Sprintf("%d", upd.TrialCount))
	return c.WriteValues(ctx, spreadsheetID, []ValueUpdate{
		{Range: fmt.Sprintf("%s%s%d", prefix, upd.TrialColumn, upd.Row), Value: trialFormula},
		{Range: fmt.Sprintf("%s%s%d", prefix, upd.TimeColumn, upd.Row), Value: upd.TimeMinutes},
	})
}

// TrialTimeUpdate addresses the two tracking cells of one member.
type TrialTimeUpdate struct {
	TabName     string // empty for single-tab group sheets
	Row         int
	TrialColumn string
	TimeColumn  string
	TrialCount  int
	TimeMinutes int
	CommitURL   string
}

// WriteQuestionHeader writes the five header rows of a question card and
// applies the standard formatting: colored difficulty and platform bands,
// title/time backgrounds, and fixed column widths.
func (c *Client) WriteQuestionHeader(ctx context.Context, spreadsheetID, tabName string, card HeaderCard) error {
	prefix := fmt.Sprintf("'%s'!", tabName)
	q, t := card.QuestionColumn, card.TimeColumn

	titleValue := interface{}(card.Title)
	if card.URL != "" {
		titleValue = fmt.Sprintf(`=HYPERLINK("%s", "%s")`,
			strings.ReplaceAll(card.URL, `"`, `""`),
			strings.ReplaceAll(card.Title, `"`, `""`))
	}

	updates := []ValueUpdate{
		{Range: prefix + q + "1", Value: card.Difficulty},
		{Range: prefix + t + "1", Value: ""},
		{Range: prefix + q + "2", Value: "0%"},
		{Range: prefix + t + "2", Value: "0"},
		{Range: prefix + q + "3", Value: strings.Join(card.Tags, ", ")},
		{Range: prefix + t + "3", Value: ""},
		{Range: prefix + q + "4", Value: platformDisplayName(card.Platform)},
		{Range: prefix + t + "4", Value: ""},
		{Range: prefix + q + "5", Value: titleValue},
		{Range: prefix + t + "5", Value: "⏱ min"},
	}
	if err := c.WriteValues(ctx, spreadsheetID, updates); err != nil {
		return err
	}
	return c.formatQuestionHeader(ctx, spreadsheetID, tabName, card)
}

// HeaderCard is one question "card": a five-row, two-column header block.
type HeaderCard struct {
	QuestionColumn string
	TimeColumn     string
	Title          string
	URL            string
	Difficulty     string
	Platform       string
	Tags           []string
}

func (c *Client) formatQuestionHeader(ctx context.Context, spreadsheetID, tabName string, card HeaderCard) error {
	gid, err := c.tabGID(ctx, spreadsheetID, tabName)
	if err != nil {
		return err
	}
	qNum, err := columns.ToNumber(card.QuestionColumn)
	if err != nil {
		return err
	}
	tNum, err := columns.ToNumber(card.TimeColumn)
	if err != nil {
		return err
	}
	qIdx, tIdx := int64(qNum-1), int64(tNum-1)

	diffBg, diffText := difficultyColors(card.Difficulty)
	platBg := platformColor(card.Platform)

	requests := []*sheets.Request{
		repeatCell(gid, 0, 1, qIdx, qIdx+1, cellFormat{bg: diffBg, text: diffText, bold: true, align: "CENTER"}),
		repeatCell(gid, 1, 2, qIdx, qIdx+1, cellFormat{align: "CENTER"}),
		repeatCell(gid, 2, 3, qIdx, qIdx+1, cellFormat{align: "CENTER"}),
		repeatCell(gid, 3, 4, qIdx, qIdx+1, cellFormat{bg: platBg, text: white, bold: true, align: "CENTER"}),
		repeatCell(gid, 4, 5, qIdx, qIdx+1, cellFormat{bg: titleBg, text: white, bold: true, align: "CENTER", wrap: "WRAP"}),
		repeatCell(gid, 4, 5, tIdx, tIdx+1, cellFormat{bg: timeLabelBg, text: black, align: "CENTER"}),
		columnWidth(gid, qIdx, 130),
		columnWidth(gid, tIdx, 60),
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to format question header on %s/%s: %w", spreadsheetID, tabName, err)
	}
	return nil
}
