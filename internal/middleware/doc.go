// Package middleware 提供 HTTP 請求處理的中間件。
//
// 包含 JWT 身分驗證、角色檢查與結構化請求日誌。
package middleware
