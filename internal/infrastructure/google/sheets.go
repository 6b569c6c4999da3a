package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// SheetsAppender implements application.TabularAppender on a Google Sheets tab.
type SheetsAppender struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	appendRange   string
}

// SheetsConfig identifies the destination of appended rows.
type SheetsConfig struct {
	SpreadsheetID string
	SheetName     string
	// LastColumn is the A1 letter of the last written column, e.g. "I".
	LastColumn string
}

// NewSheetsAppender creates a Sheets client from service-account credentials.
func NewSheetsAppender(ctx context.Context, creds Credentials, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsAppender, error) {
	ts, err := creds.TokenSource(ctx, SpreadsheetsScope)
	if err != nil {
		return nil, err
	}
	return NewSheetsAppenderWithOptions(ctx, cfg, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

// NewSheetsAppenderWithOptions creates a Sheets client from raw client options.
func NewSheetsAppenderWithOptions(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsAppender, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsAppender{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		appendRange:   AppendRange(cfg.SheetName, cfg.LastColumn),
	}, nil
}

// AppendRow appends row after the last row of the table. Values are entered as
// if typed by a user, so the photo HYPERLINK formula is evaluated while every
// other text cell is forced to a literal string.
func (s *SheetsAppender) AppendRow(ctx context.Context, row domain.Row) error {
	rb := &sheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{LiteralRow(row)},
	}
	_, err := s.values.Append(s.spreadsheetID, s.appendRange, rb).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append to %s: %w", s.appendRange, err)
	}
	return nil
}

// LiteralRow prefixes an apostrophe to every non-empty string cell except the
// photo cell. Sheets stores the rest of the text verbatim, so user input is
// never parsed as a formula, number or date.
func LiteralRow(row domain.Row) []interface{} {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		text, ok := cell.(string)
		if !ok || text == "" || i == domain.PhotoColumn {
			values[i] = cell
			continue
		}
		values[i] = "'" + text
	}
	return values
}

// Range returns the A1 range rows are appended to.
func (s *SheetsAppender) Range() string {
	return s.appendRange
}

// AppendRange builds "'<sheet>'!A:<last>" from a configured sheet name. Line
// breaks are stripped and single quotes doubled, so names with spaces or
// punctuation stay valid.
func AppendRange(sheetName, lastColumn string) string {
	if lastColumn == "" {
		lastColumn = "I"
	}
	return fmt.Sprintf("%s!A:%s", QuoteSheetName(sheetName), lastColumn)
}

// QuoteSheetName quotes a sheet name for A1 notation.
func QuoteSheetName(sheetName string) string {
	name := strings.NewReplacer("\r", "", "\n", "").Replace(sheetName)
	name = strings.TrimSpace(name)
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
