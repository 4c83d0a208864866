package dto

import "time"

// ImportResult reports a completed collection replace.
type ImportResult struct {
	Semesters int    `json:"semesters"`
	Revision  uint64 `json:"revision"`
}

// SavedExport points at a backup document written to the exports directory.
type SavedExport struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
