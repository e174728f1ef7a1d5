package repository

import "errors"

// 通用的存儲庫錯誤，各後端實作必須回傳這些值，服務層只依賴它們
var (
	// ErrNotFound 表示請求的記錄不存在
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry 表示寫入違反了唯一約束
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)
