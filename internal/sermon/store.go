package sermon

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nao1215/pulpit/pkg/migration"
	"github.com/nao1215/pulpit/pkg/set"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store は説教レコードの永続化と読み取りスナップショットを管理する。
// レコードはSQLiteに永続化され、起動時および取り込み時にメモリ上の
// スナップショットへ読み込まれる。読み取りパスはDBに触れない。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// snapshot は現在の全レコードの読み取り専用スナップショット。
	// 取り込み時に新しいスライスへアトミックに差し替える。
	snapshot atomic.Pointer[[]Record]
}

// OpenStore は指定パスのSQLiteデータベースを開き、マイグレーションを適用して
// レコードをメモリに読み込んだStoreを返す。
// テストでは ":memory:" を指定してインメモリDBを使用できる。
func OpenStore(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_time_format=sqlite&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := migration.Run(db, migrationsFS, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("マイグレーションの適用に失敗: %w", err)
	}

	s := &Store{db: db}
	if err := s.Reload(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Records は現在のスナップショットを返す。
// 返却されるスライスは差し替え以外で変更されないため、呼び出し側は
// ソート等の破壊的操作をする前に複製すること。
func (s *Store) Records() []Record {
	if p := s.snapshot.Load(); p != nil {
		return *p
	}
	return nil
}

// Reload はSQLiteから全レコードを読み直してスナップショットを差し替える。
func (s *Store) Reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, filename, title, date, year, themes, url, created_at, updated_at FROM sermons ORDER BY date DESC, title ASC")
	if err != nil {
		return fmt.Errorf("レコードの読み込みに失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("レコードの走査に失敗: %w", err)
	}

	s.snapshot.Store(&records)
	return nil
}

// ReplaceAll は既存レコードをすべて削除して新しいレコード集合に置き換える。
// 取り込みプロセス専用の操作で、トランザクション内で実行したあと
// スナップショットを読み直す。すべてのレコードは事前に検証される。
func (s *Store) ReplaceAll(ctx context.Context, records []Record) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("不正なレコードが含まれています: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sermons"); err != nil {
		return fmt.Errorf("既存レコードの削除に失敗: %w", err)
	}

	const insert = `INSERT INTO sermons (id, filename, title, date, year, themes, url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, r := range records {
		themesJSON, err := json.Marshal(r.SortedThemes())
		if err != nil {
			return fmt.Errorf("テーマのシリアライズに失敗 (id=%q): %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insert,
			r.ID, r.Filename, r.Title, r.DateString(), r.Year,
			string(themesJSON), r.URL, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("レコードの挿入に失敗 (id=%q): %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}

	return s.Reload(ctx)
}

// scanRecord は1行分のクエリ結果をRecordに変換する。
func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		r          Record
		dateStr    string
		themesJSON string
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := rows.Scan(&r.ID, &r.Filename, &r.Title, &dateStr, &r.Year,
		&themesJSON, &r.URL, &createdAt, &updatedAt); err != nil {
		return Record{}, fmt.Errorf("レコード行の読み取りに失敗: %w", err)
	}

	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return Record{}, fmt.Errorf("日付列の解析に失敗 (id=%q, date=%q): %w", r.ID, dateStr, err)
	}
	r.Date = date

	var themes []string
	if err := json.Unmarshal([]byte(themesJSON), &themes); err != nil {
		return Record{}, fmt.Errorf("テーマ列の解析に失敗 (id=%q): %w", r.ID, err)
	}
	r.Themes = set.New(themes...)
	r.CreatedAt = createdAt
	r.UpdatedAt = updatedAt

	if err := r.Validate(); err != nil {
		return Record{}, fmt.Errorf("保存済みレコードが不変条件を満たしていません: %w", err)
	}
	return r, nil
}
