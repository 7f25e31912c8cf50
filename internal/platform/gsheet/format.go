package gsheet

import (
	"strings"

	sheets "google.golang.org/api/sheets/v4"
)

var (
	white = &sheets.Color{Red: 1, Green: 1, Blue: 1}
	black = &sheets.Color{Red: 0, Green: 0, Blue: 0}

	titleBg     = &sheets.Color{Red: 0.29, Green: 0.53, Blue: 0.78}
	timeLabelBg = &sheets.Color{Red: 0.71, Green: 0.78, Blue: 0.86}
)

func difficultyColors(difficulty string) (bg, text *sheets.Color) {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "medium":
		return &sheets.Color{Red: 1, Green: 0.65, Blue: 0}, black
	case "hard":
		return &sheets.Color{Red: 1, Green: 0, Blue: 0}, white
	default: // Easy and anything unrecognized
		return &sheets.Color{Red: 0, Green: 1, Blue: 0}, black
	}
}

func platformColor(platform string) *sheets.Color {
	switch platform {
	case "codeforces":
		return &sheets.Color{Red: 0.12, Green: 0.56, Blue: 1}
	case "hackerrank":
		return &sheets.Color{Red: 0, Green: 0.78, Blue: 0.33}
	case "atcoder":
		return &sheets.Color{Red: 0.25, Green: 0.25, Blue: 0.25}
	case "geeksforgeeks":
		return &sheets.Color{Red: 0.18, Green: 0.55, Blue: 0.34}
	default: // leetcode
		return &sheets.Color{Red: 1, Green: 0.65, Blue: 0}
	}
}

func platformDisplayName(platform string) string {
	switch platform {
	case "leetcode":
		return "LeetCode"
	case "codeforces":
		return "Codeforces"
	case "hackerrank":
		return "HackerRank"
	case "atcoder":
		return "AtCoder"
	case "geeksforgeeks":
		return "GeeksforGeeks"
	}
	return platform
}

type cellFormat struct {
	bg    *sheets.Color
	text  *sheets.Color
	bold  bool
	align string
	wrap  string
}

func repeatCell(gid, startRow, endRow, startCol, endCol int64, f cellFormat) *sheets.Request {
	format := &sheets.CellFormat{}
	var fields []string

	if f.bg != nil {
		format.BackgroundColor = f.bg
		fields = append(fields, "userEnteredFormat.backgroundColor")
	}

	textFormat := &sheets.TextFormat{FontSize: 11}
	fields = append(fields, "userEnteredFormat.textFormat.fontSize")
	if f.text != nil {
		textFormat.ForegroundColor = f.text
		fields = append(fields, "userEnteredFormat.textFormat.foregroundColor")
	}
	if f.bold {
		textFormat.Bold = true
		fields = append(fields, "userEnteredFormat.textFormat.bold")
	}
	format.TextFormat = textFormat

	if f.align != "" {
		format.HorizontalAlignment = f.align
		fields = append(fields, "userEnteredFormat.horizontalAlignment")
	}
	if f.wrap != "" {
		format.WrapStrategy = f.wrap
		fields = append(fields, "userEnteredFormat.wrapStrategy")
	}

	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          gid,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: strings.Join(fields, ","),
		},
	}
}

func columnWidth(gid, colIdx, pixels int64) *sheets.Request {
	return &sheets.Request{
		UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
			Range: &sheets.DimensionRange{
				SheetId:    gid,
				Dimension:  "COLUMNS",
				StartIndex: colIdx,
				EndIndex:   colIdx + 1,
			},
			Properties: &sheets.DimensionProperties{PixelSize: pixels},
			Fields:     "pixelSize",
		},
	}
}
