package migrate

import (
	"database/sql"

	"loc-sim/internal/logger"
)

// 背景：首次运行自动创建书签表，保障后续读写
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _loc_bookmarks (
            id SERIAL PRIMARY KEY,
            label TEXT NOT NULL,
            note TEXT NOT NULL DEFAULT '',
            lat DOUBLE PRECISION NOT NULL,
            lon DOUBLE PRECISION NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_bookmarks_created ON _loc_bookmarks(created_at DESC)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			logger.L().Error("schema_stmt_error", "err", err)
			return err
		}
	}
	logger.L().Info("schema_ok")
	return nil
}
