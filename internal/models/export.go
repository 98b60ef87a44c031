package models

import "time"

// ExportRequest selects the rendered format of an export.
type ExportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=csv pdf"`
}

// ExportResult points at a generated file behind a signed link.
type ExportResult struct {
	ExportID  string    `json:"export_id"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
