// Package journal はルーティング決定の追記専用ジャーナルを提供する。
//
// エッジルーターが処理した各リクエストについて、どのリージョンの
// どのシャードへ転送されどう終わったかを記録する。コアパイプライン自体は
// ステートレスであり、ジャーナルへの書き込みは応答の内容が確定した後に
// 行われる（記録の失敗が応答に影響することはない）。
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Journal はルーティングジャーナルのストア。
type Journal struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// Entry はジャーナルの1レコードを表す。
type Entry struct {
	// ID はレコードの一意識別子（UUID）。
	ID string `json:"id"`
	// RequestID はリクエストの識別子。
	RequestID string `json:"request_id"`
	// Region は転送先リージョンコード。
	Region string `json:"region"`
	// ShardIndex は選択されたシャード番号。
	ShardIndex int `json:"shard_index"`
	// ActorID は選択されたアクターの識別子。
	ActorID string `json:"actor_id"`
	// RequestKind はプロトコル種別（soap または http）。
	RequestKind string `json:"request_kind"`
	// Status は呼び出し元へ返したHTTPステータスコード。
	Status int `json:"status"`
	// DurationMS は転送にかかった時間（ミリ秒）。
	DurationMS int64 `json:"duration_ms"`
	// CreatedAt はレコードの作成日時。
	CreatedAt time.Time `json:"created_at"`
}

// Open はSQLiteデータベースを開き、スキーマを適用してジャーナルを生成する。
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record はルーティング決定を1件記録する。IDは内部で採番される。
func (j *Journal) Record(ctx context.Context, e Entry) error {
	const query = `
INSERT INTO route_journal (id, request_id, region, shard_index, actor_id, request_kind, status, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := j.db.ExecContext(ctx, query,
		uuid.New().String(), e.RequestID, e.Region, e.ShardIndex,
		e.ActorID, e.RequestKind, e.Status, e.DurationMS,
	); err != nil {
		return fmt.Errorf("ジャーナルの記録に失敗: %w", err)
	}
	return nil
}

// Recent は新しい順に最大limit件のレコードを返す。
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
SELECT id, request_id, region, shard_index, actor_id, request_kind, status, duration_ms, created_at
FROM route_journal
ORDER BY created_at DESC, rowid DESC
LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ジャーナルの取得に失敗: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Region, &e.ShardIndex,
			&e.ActorID, &e.RequestKind, &e.Status, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ジャーナルレコードの読み取りに失敗: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ジャーナルの走査に失敗: %w", err)
	}
	return entries, nil
}
