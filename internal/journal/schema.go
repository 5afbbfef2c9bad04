package journal

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。ジャーナルは追記専用で、更新・削除は行わない。
const schema = `
CREATE TABLE IF NOT EXISTS route_journal (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    region TEXT NOT NULL,
    shard_index INTEGER NOT NULL,
    actor_id TEXT NOT NULL,
    request_kind TEXT NOT NULL,
    status INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_route_journal_created_at
    ON route_journal(created_at);

CREATE INDEX IF NOT EXISTS idx_route_journal_region
    ON route_journal(region);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
