package access

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRoleNotFound   = errors.New("role not found")
	ErrUnknownContext = errors.New("unknown goal context")
)
