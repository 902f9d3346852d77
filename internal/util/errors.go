package util

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrAlreadyAttempted   = errors.New("exam already attempted")
	ErrExamNotStarted     = errors.New("exam not started")
	ErrNotEnoughQuestions = errors.New("not enough questions in database")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrInvalidAnswer      = errors.New("invalid answer")
	ErrInvalidSettings    = errors.New("invalid values")
	ErrPermissionDenied   = errors.New("permission denied")
)
