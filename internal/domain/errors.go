package domain

import (
	"errors"
	"fmt"
)

// Базовые виды ошибок. Проверяются через errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrTargetNotFound      = errors.New("target comment not found")
	ErrIdentifierCollision = errors.New("identifier already present")
	ErrNotFound            = errors.New("not found")
)

// Error - типизированная ошибка доменного слоя.
type Error struct {
	Kind error  // один из Err* выше
	Op   string // операция, например "commenttree.Attach"
	ID   string // идентификатор, к которому относится ошибка
	Msg  string
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s (id %s)", msg, e.ID)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

// Validation создает ошибку валидации ввода.
func Validation(op, msg string) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: msg}
}

// TargetNotFound сообщает, что родитель ответа отсутствует в дереве.
func TargetNotFound(op, id string) error {
	return &Error{Kind: ErrTargetNotFound, Op: op, ID: id}
}

// IdentifierCollision сообщает о повторном идентификаторе.
func IdentifierCollision(op, id string) error {
	return &Error{Kind: ErrIdentifierCollision, Op: op, ID: id}
}

// NotFound сообщает об отсутствующей сущности.
func NotFound(op, what, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, ID: id, Msg: what + " not found"}
}
