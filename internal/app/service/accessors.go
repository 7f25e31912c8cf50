package service

import (
	"context"

	"codetrack/internal/platform/gsheet"
)

// SheetAccessor is the slice of the spreadsheet client the services consume.
type SheetAccessor interface {
	ListTabs(ctx context.Context, spreadsheetID string) ([]gsheet.Tab, error)
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	ReadHeaderGrid(ctx context.Context, spreadsheetID, tabName, startColumn, endColumn string) ([][]gsheet.Cell, error)
	WriteQuestionHeader(ctx context.Context, spreadsheetID, tabName string, card gsheet.HeaderCard) error
	UpdateTrialAndTime(ctx context.Context, spreadsheetID string, upd gsheet.TrialTimeUpdate) error
}

// RepoHost commits solution files to a member's repository.
type RepoHost interface {
	UpsertFile(ctx context.Context, token, repoFullName, path, message, content string) (string, error)
}
