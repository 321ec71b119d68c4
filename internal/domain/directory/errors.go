package directory

import "errors"

var (
	ErrRoleNotFound   = errors.New("role not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrRoleInUse      = errors.New("role is still assigned to users")
	ErrDuplicateRole  = errors.New("role name already exists")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrUnknownTarget  = errors.New("permission entry references unknown dashboard or page")
)
