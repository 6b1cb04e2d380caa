package dsl

import (
	"errors"
	"fmt"
)

// Ошибки парсинга DSL.
var (
	// ErrMalformedHeader — первая значимая строка не является
	// заголовком `flow <Name>:`.
	ErrMalformedHeader = errors.New("malformed flow header")

	// ErrConnectionSyntax — строка не является ни описанием,
	// ни комментарием, ни определением связи.
	ErrConnectionSyntax = errors.New("invalid connection syntax")

	// ErrEmptyDefinition — текст не содержит ни одной значимой строки.
	ErrEmptyDefinition = errors.New("empty flow definition")
)

// ParseError — ошибка парсинга с номером строки.
type ParseError struct {
	// Line — номер строки (с 1), вызвавшей ошибку.
	Line int

	// Text — содержимое строки.
	Text string

	// Err — базовая ошибка (ErrMalformedHeader или ErrConnectionSyntax).
	Err error
}

// Error реализует интерфейс error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

// Unwrap возвращает базовую ошибку.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(line int, text string, err error) *ParseError {
	return &ParseError{Line: line, Text: text, Err: err}
}
