package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// ============================================================
// Fatal errors
// ============================================================

type ErrorKind string

const (
	KindArchiveCorrupt      ErrorKind = "archive_corrupt"
	KindArchiveMissingEntry ErrorKind = "archive_missing_entry"
	KindDocumentMalformed   ErrorKind = "document_malformed"
	KindInvariantViolation  ErrorKind = "invariant_violation"
	KindCancelled           ErrorKind = "cancelled"
)

// ImportError: фатальная ошибка, прерывающая весь импорт
type ImportError struct {
	Kind    ErrorKind
	Stage   Stage
	Message string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Stage, e.Message)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Fatal создаёт ImportError
func Fatal(kind ErrorKind, stage Stage, err error, format string, args ...any) *ImportError {
	return &ImportError{Kind: kind, Stage: stage, Message: fmt.Sprintf(format, args...), Err: err}
}

// Cancelled оборачивает ошибку контекста
func Cancelled(stage Stage, err error) *ImportError {
	return &ImportError{Kind: KindCancelled, Stage: stage, Message: "import cancelled", Err: err}
}

// KindOf возвращает вид фатальной ошибки или "" для прочих ошибок
func KindOf(err error) ErrorKind {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
