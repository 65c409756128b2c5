package models

import (
	importer "sh3d-importer/internal/importer/models"
)

// ============================================================
// Import Record
// ============================================================

type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// ImportRecord описывает запись истории импорта. Исходный архив лежит в хранилище
// под ArchiveKey, сводка и предупреждения, в базе
type ImportRecord struct {
	ID           string             `json:"id"`
	Filename     string             `json:"filename"`
	Size         int64              `json:"size"`
	ArchiveKey   string             `json:"archive_key"`
	Status       Status             `json:"status"`
	ErrorKind    string             `json:"error_kind,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Options      string             `json:"options"`
	Counts       importer.Counts    `json:"counts"`
	Warnings     []importer.Warning `json:"warnings"`
	CreatedAt    string             `json:"created_at"`
}
