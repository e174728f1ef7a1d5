// Package api 組裝 HTTP 路由。
//
// 各路由的處理器位於 handlers 子包，負責把請求轉換為服務調用，
// 並把領域錯誤映射為 HTTP 狀態碼。
package api
