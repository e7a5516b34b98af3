package models

// ── Core Types ───────────────────────────────────────────

type Question struct {
	ID        int64  `json:"id"`
	Topic     string `json:"topic"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Known     bool   `json:"known"`
	ViewCount int    `json:"viewCount"`
}

// SkippedRow records a spreadsheet row that was left out of an import.
// Row is the 1-based row number as shown by spreadsheet software.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ── Response Types ───────────────────────────────────────

type UploadResponse struct {
	Message     string       `json:"message"`
	Count       int          `json:"count"`
	Skipped     int          `json:"skipped"`
	SkippedRows []SkippedRow `json:"skippedRows,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
