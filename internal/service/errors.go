package service

import (
	"errors"
	"fmt"
)

// 呼叫端可見的領域錯誤，原樣傳遞到邊界層
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyMember     = errors.New("user is already in a room")
	ErrNotMember         = errors.New("user is not a member of the room")
	ErrDuplicateMatch    = errors.New("match already exists for this pair and round")
	ErrRoundClosed       = errors.New("round has already been closed")
	ErrCapacityExhausted = errors.New("room code namespace exhausted")

	// ErrInternal 表示非預期的存儲失敗，不得映射為上列任何錯誤
	ErrInternal = errors.New("internal error")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)

var (
	ErrRoomNotFound       = fmt.Errorf("room %w", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("membership %w", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("match %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
)

// invalidArgument 包裝輸入驗證錯誤
func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// internalError 包裝非預期的存儲錯誤
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
