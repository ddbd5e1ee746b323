package storage

// NotFoundError - запрошенная по id запись не существует (HTTP 404).
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// ReferenceError - запись, на которую ссылается создаваемая, не существует (HTTP 400).
type ReferenceError struct {
	Entity string
}

func (e *ReferenceError) Error() string { return e.Entity + " not found" }

// ConflictError - нарушено ограничение уникальности, ничего не записано (HTTP 400).
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

var (
	ErrUserNotFound    = &NotFoundError{Entity: "User"}
	ErrPostNotFound    = &NotFoundError{Entity: "Blog post"}
	ErrCommentNotFound = &NotFoundError{Entity: "Comment"}

	ErrAuthorMissing = &ReferenceError{Entity: "User"}
	ErrPostMissing   = &ReferenceError{Entity: "Blog post"}

	ErrDuplicateEmail = &ConflictError{Reason: "Email already registered"}
)
