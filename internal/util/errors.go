package util

import "errors"

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrNameRequired     = errors.New("name is required")
	ErrQuestionRequired = errors.New("question is required")
	ErrUnknownQuestion  = errors.New("unknown question label")
	ErrRowNotFound      = errors.New("appended row could not be located")
	ErrInvalidToken     = errors.New("invalid or expired confirmation token")
	ErrLabelsReordered  = errors.New("existing question labels must keep their order")
)
