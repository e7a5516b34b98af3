package importer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/quiz-app/backend/internal/models"
)

var headerNames = []string{"topic", "question", "answer"}

// questionRow is a single data row after trimming.
type questionRow struct {
	Topic    string `validate:"required,max=255"`
	Question string `validate:"required,max=10000"`
	Answer   string `validate:"required,max=10000"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func buildResult(rows []sheetRow) *Result {
	result := &Result{}
	headerChecked := false

	for _, row := range rows {
		cells := trimCells(row.cells)
		if isBlank(cells) {
			continue
		}
		if !headerChecked {
			headerChecked = true
			if isHeader(cells) {
				continue
			}
		}

		result.TotalRows++
		if !validUTF8(cells) {
			result.Skipped = append(result.Skipped, models.SkippedRow{Row: row.num, Reason: "invalid text encoding"})
			continue
		}
		qr := questionRow{Topic: cell(cells, 0), Question: cell(cells, 1), Answer: cell(cells, 2)}
		if err := validate.Struct(qr); err != nil {
			result.Skipped = append(result.Skipped, models.SkippedRow{Row: row.num, Reason: describe(err)})
			continue
		}

		result.Questions = append(result.Questions, models.Question{
			Topic:    qr.Topic,
			Question: qr.Question,
			Answer:   qr.Answer,
		})
	}
	return result
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func validUTF8(cells []string) bool {
	for _, c := range cells {
		if !utf8.ValidString(c) {
			return false
		}
	}
	return true
}

func isHeader(cells []string) bool {
	if len(cells) < len(headerNames) {
		return false
	}
	for i, name := range headerNames {
		if !strings.EqualFold(cells[i], name) {
			return false
		}
	}
	return true
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

// describe turns validator output into a short reason like
// "missing answer" or "question longer than 10000 characters".
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			reasons = append(reasons, "missing "+field)
		case "max":
			reasons = append(reasons, fmt.Sprintf("%s longer than %s characters", field, fe.Param()))
		default:
			reasons = append(reasons, field+" is invalid")
		}
	}
	return strings.Join(reasons, ", ")
}
