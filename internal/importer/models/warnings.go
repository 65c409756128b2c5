package models

import "fmt"

// ============================================================
// Warnings
// ============================================================

type Stage string

const (
	StageArchive   Stage = "archive"
	StageParse     Stage = "parse"
	StageResolve   Stage = "resolve"
	StageBuild     Stage = "build"
	StageTransform Stage = "transform"
	StageGeometry  Stage = "geometry"
	StageEmit      Stage = "emit"
)

// Stages: порядок стадий конвейера
var Stages = []Stage{StageArchive, StageParse, StageResolve, StageBuild, StageTransform, StageGeometry}

type WarningCode string

const (
	WarnMissingAttribute    WarningCode = "missing_attribute"
	WarnInvalidEnum         WarningCode = "invalid_enum"
	WarnInvalidNumber       WarningCode = "invalid_number"
	WarnInvalidValue        WarningCode = "invalid_value"
	WarnUnknownElement      WarningCode = "unknown_element"
	WarnUnknownAttribute    WarningCode = "unknown_attribute"
	WarnDuplicateID         WarningCode = "duplicate_id"
	WarnUnresolvedReference WarningCode = "unresolved_reference"
	WarnCrossLevelReference WarningCode = "cross_level_reference"
	WarnDegenerateRoom      WarningCode = "degenerate_room"
	WarnDegenerateWall      WarningCode = "degenerate_wall"
	WarnGroupMismatch       WarningCode = "group_mismatch"
	WarnNoHostWall          WarningCode = "no_host_wall"
	WarnMissingResource     WarningCode = "missing_resource"
	WarnInvalidShape        WarningCode = "invalid_cut_out_shape"
	WarnUnknownCatalog      WarningCode = "unknown_catalog_id"
)

// Warning: некритичная ошибка уровня сущности
type Warning struct {
	Stage    Stage       `json:"stage"`
	Code     WarningCode `json:"code"`
	Element  string      `json:"element,omitempty"`
	EntityID string      `json:"entityId,omitempty"`
	Line     int         `json:"line,omitempty"`
	Message  string      `json:"message"`
}

func (w Warning) String() string {
	where := w.Element
	if w.EntityID != "" {
		where = fmt.Sprintf("%s %q", w.Element, w.EntityID)
	}
	if w.Line > 0 {
		where = fmt.Sprintf("%s (line %d)", where, w.Line)
	}
	return fmt.Sprintf("[%s] %s: %s: %s", w.Stage, w.Code, where, w.Message)
}

// ============================================================
// Progress
// ============================================================

// Progress: событие хода импорта (стадия, выполнено, всего)
type Progress struct {
	Stage     Stage `json:"stage"`
	Completed int   `json:"completed"`
	Total     int   `json:"total"`
}

type ProgressFunc func(Progress)

// Report безопасно вызывает обработчик
func (f ProgressFunc) Report(stage Stage, completed, total int) {
	if f == nil {
		return
	}
	f(Progress{Stage: stage, Completed: completed, Total: total})
}
