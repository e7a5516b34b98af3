package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/xuri/excelize/v2"
)

// sheetRow is one spreadsheet row with its 1-based row number.
type sheetRow struct {
	num   int
	cells []string
}

func readWorkbook(data []byte) ([]sheetRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, parseErrorf(err, "file is not a valid .xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Msg: "file is not a valid .xlsx workbook", Err: errors.New("no worksheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, parseErrorf(err, "read sheet %q", sheets[0])
	}

	out := make([]sheetRow, 0, len(rows))
	for i, cells := range rows {
		out = append(out, sheetRow{num: i + 1, cells: cells})
	}
	return out, nil
}

func readDelimited(data []byte) ([]sheetRow, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []sheetRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseErrorf(err, "file is not a valid .csv")
		}
		// encoding/csv drops empty lines, so take the row number from the reader.
		line, _ := r.FieldPos(0)
		rows = append(rows, sheetRow{num: line, cells: rec})
	}
	return rows, nil
}

// sniffDelimiter picks the separator used on the first line that has one.
// Spreadsheet software in many locales exports with ';' rather than ','.
// Separators inside quoted fields are not counted.
func sniffDelimiter(data []byte) rune {
	candidates := [...]byte{',', ';', '\t'}
	var counts [len(candidates)]int
	inQuotes := false

scan:
	for _, b := range data {
		switch {
		case b == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case b == '\n':
			for _, n := range counts {
				if n > 0 {
					break scan
				}
			}
		default:
			for i, c := range candidates {
				if b == c {
					counts[i]++
				}
			}
		}
	}

	best := 0
	for i := range candidates {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return rune(candidates[best])
}
