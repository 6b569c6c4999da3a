package application

import (
	"fmt"
	"strings"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// RowLayout selects the destination range width.
type RowLayout string

const (
	// LayoutExtended writes columns A–I: six data columns plus three internal ones.
	LayoutExtended RowLayout = "extended"
	// LayoutFlat writes columns A–F.
	LayoutFlat RowLayout = "flat"
)

// Columns returns the number of cells a row has in this layout.
func (l RowLayout) Columns() int {
	if l == LayoutFlat {
		return 6
	}
	return 9
}

// LastColumn returns the A1 letter of the last column.
func (l RowLayout) LastColumn() string {
	if l == LayoutFlat {
		return "F"
	}
	return "I"
}

// ParseRowLayout maps a config value onto a RowLayout. "6" and "9" are accepted.
func ParseRowLayout(value string) (RowLayout, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "extended", "9":
		return LayoutExtended, nil
	case "flat", "6":
		return LayoutFlat, nil
	default:
		return "", fmt.Errorf("unknown row layout %q", value)
	}
}

// PhotoCellPolicy selects how the photo link is rendered.
type PhotoCellPolicy string

const (
	// PhotoCellHyperlink renders =HYPERLINK("link","name").
	PhotoCellHyperlink PhotoCellPolicy = "hyperlink"
	// PhotoCellRaw renders the bare link.
	PhotoCellRaw PhotoCellPolicy = "raw"
)

// ParsePhotoCellPolicy maps a config value onto a PhotoCellPolicy.
func ParsePhotoCellPolicy(value string) (PhotoCellPolicy, error) {
	switch PhotoCellPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case PhotoCellHyperlink, "":
		return PhotoCellHyperlink, nil
	case PhotoCellRaw:
		return PhotoCellRaw, nil
	default:
		return "", fmt.Errorf("unknown photo cell policy %q", value)
	}
}

// RowFormatter maps a submission onto the column contract of the log.
type RowFormatter struct {
	layout    RowLayout
	photoCell PhotoCellPolicy
}

// NewRowFormatter creates a formatter for one deployment's policies.
func NewRowFormatter(layout RowLayout, photoCell PhotoCellPolicy) RowFormatter {
	if layout == "" {
		layout = LayoutExtended
	}
	if photoCell == "" {
		photoCell = PhotoCellHyperlink
	}
	return RowFormatter{layout: layout, photoCell: photoCell}
}

// Layout returns the configured layout.
func (f RowFormatter) Layout() RowLayout {
	return f.layout
}

// Format builds the row for submission. photo may be nil.
//
// Columns: Store Name, Store Address, Item Type, Level, Notes, Photo and, in the
// extended layout, Internal Brand, Internal Measurement, Internal Notes. The
// internal columns stay empty for downstream automation.
func (f RowFormatter) Format(submission domain.Submission, photo *domain.UploadedPhoto) domain.Row {
	row := make(domain.Row, 0, f.layout.Columns())
	row = append(row,
		submission.StoreName,
		submission.StoreAddress,
		submission.ItemType,
		submission.Level,
		submission.Notes,
		f.photoValue(photo),
	)
	for len(row) < f.layout.Columns() {
		row = append(row, "")
	}
	return row
}

func (f RowFormatter) photoValue(photo *domain.UploadedPhoto) string {
	if photo == nil || photo.ViewLink == "" {
		return ""
	}
	if f.photoCell == PhotoCellRaw {
		return photo.ViewLink
	}
	return HyperlinkFormula(photo.ViewLink, photo.DisplayName)
}

// HyperlinkFormula renders a spreadsheet HYPERLINK formula. Quotes in the label
// are doubled; quotes in the link are percent-encoded.
func HyperlinkFormula(link, label string) string {
	link = strings.ReplaceAll(link, `"`, "%22")
	label = strings.ReplaceAll(label, `"`, `""`)
	return fmt.Sprintf(`=HYPERLINK("%s","%s")`, link, label)
}
