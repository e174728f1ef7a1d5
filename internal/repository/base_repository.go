package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgreSQL 錯誤碼
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// parentRoomKeys 是指向 rooms 的外鍵；違反時代表房間已不存在
var parentRoomKeys = map[string]bool{
	"memberships_room_id_fkey": true,
	"matches_room_id_fkey":     true,
}

// baseRepository 提供 GORM 實作共用的連線與錯誤轉換
type baseRepository struct {
	db *gorm.DB
}

func (r *baseRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// forUpdate 在交易內對讀取的列加上排他鎖
func (r *baseRepository) forUpdate(ctx context.Context) *gorm.DB {
	return r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// forShare 在交易內對讀取的列加上共享鎖
func (r *baseRepository) forShare(ctx context.Context) *gorm.DB {
	return r.conn(ctx).Clauses(clause.Locking{Strength: "SHARE"})
}

// translateError 將 GORM / PostgreSQL 錯誤映射為存儲庫錯誤
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if IsUniqueViolation(err) {
		return ErrDuplicateEntry
	}
	// 只有房間外鍵衝突視為找不到；其他外鍵（例如使用者）照原樣回傳
	if isMissingRoom(err) {
		return ErrNotFound
	}
	return fmt.Errorf("gorm: %s: %w", op, err)
}

func isMissingRoom(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgForeignKeyViolation &&
		parentRoomKeys[pgErr.ConstraintName]
}

// IsUniqueViolation 判斷錯誤是否為唯一約束衝突
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
