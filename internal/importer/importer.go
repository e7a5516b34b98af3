// Package importer turns uploaded spreadsheets into question records.
//
// Two formats are accepted: Office Open XML workbooks (.xlsx) and delimited
// text (.csv). The format is sniffed from the content, not the file name, so
// an upload renamed to the wrong extension still parses. Only the first
// worksheet of a workbook is read.
//
// Columns are positional: topic, question, answer. A header row naming those
// columns is skipped. Rows missing any of the three values are skipped and
// reported back; blank rows are ignored.
package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/quiz-app/backend/internal/models"
)

// Result is the outcome of a successful parse.
type Result struct {
	Questions []models.Question
	Skipped   []models.SkippedRow
	// TotalRows counts non-blank data rows, header excluded.
	TotalRows int
}

// ParseError reports input that is not a readable spreadsheet, or a
// spreadsheet with nothing to import. Its message is safe to show to users.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(err error, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the whole of r and converts each data row into a Question with
// Known false and ViewCount zero. IDs are left unset.
func Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Msg: "file is empty"}
	}

	var rows []sheetRow
	mtype := mimetype.Detect(data)
	switch {
	case hasAncestor(mtype, "application/zip"):
		rows, err = readWorkbook(data)
	case hasAncestor(mtype, "text/plain"):
		rows, err = readDelimited(data)
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("unsupported file type %s, expected .xlsx or .csv", mtype.String())}
	}
	if err != nil {
		return nil, err
	}

	result := buildResult(rows)
	if len(result.Questions) == 0 {
		return nil, &ParseError{Msg: "no questions found in file"}
	}
	return result, nil
}

// hasAncestor reports whether m or any of its parents in the mimetype tree is
// the given type. An xlsx is detected as a child of application/zip and csv as
// a child of text/plain.
func hasAncestor(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}
