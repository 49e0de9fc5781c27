// Package sermon は説教アーカイブのドメインモデルと読み取りクエリを提供する。
// レコードストア・クエリエンジン・テーマカタログ・統計・HTTPサーバーを含む。
package sermon

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/pulpit/pkg/set"
)

// DateLayout は説教日付の文字列表現レイアウト（ISO 8601の日付部分）。
const DateLayout = "2006-01-02"

// Record は1件の説教レコードを表す不変値。
// 取り込み完了後は読み取り専用として扱う。
type Record struct {
	// ID はファイル名から導出される一意識別子。
	ID string
	// Filename は元の音声ファイル名。全レコードで一意。
	Filename string
	// Title は説教タイトル。
	Title string
	// Date は説教日付（日付精度、UTC）。
	Date time.Time
	// Year は説教年。Date.Year()と常に一致する。
	Year int
	// Themes は説教に付与されたテーマタグの集合。必ず1つ以上含む。
	Themes set.Set[string]
	// URL は音声ファイルの再生・ダウンロード先URL。
	URL string
	// CreatedAt はレコード作成日時。
	CreatedAt time.Time
	// UpdatedAt はレコード更新日時。
	UpdatedAt time.Time
}

// IDFromFilename はファイル名からレコードの一意識別子を導出する。
// 拡張子を取り除き、空白をハイフンに置き換えて小文字化する。
func IDFromFilename(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.Join(strings.Fields(name), "-")
	return strings.ToLower(name)
}

// Validate はレコードが不変条件を満たしているかを検証する。
// 取り込み時とストアからの読み込み時に呼び出す。
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("レコードIDが空です (filename=%q)", r.Filename)
	}
	if r.Filename == "" {
		return fmt.Errorf("ファイル名が空です (id=%q)", r.ID)
	}
	if r.Title == "" {
		return fmt.Errorf("タイトルが空です (filename=%q)", r.Filename)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("日付が未設定です (filename=%q)", r.Filename)
	}
	if r.Year != r.Date.Year() {
		return fmt.Errorf("年と日付が一致しません (filename=%q, year=%d, date=%s)",
			r.Filename, r.Year, r.DateString())
	}
	if r.Themes.IsEmpty() {
		return fmt.Errorf("テーマが1つも付与されていません (filename=%q)", r.Filename)
	}
	if r.URL == "" {
		return fmt.Errorf("URLが空です (filename=%q)", r.Filename)
	}
	return nil
}

// DateString は日付のISO 8601文字列表現を返す。
func (r Record) DateString() string {
	return r.Date.Format(DateLayout)
}

// SortedThemes はテーマタグを名前昇順のスライスとして返す。
// JSONレスポンスやDB保存での決定的な並びに使用する。
func (r Record) SortedThemes() []string {
	themes := r.Themes.Members()
	sort.Strings(themes)
	return themes
}

// RecordInput は取り込み元データ（sermon_metadata.jsonや内部APIのボディ）の
// 1件分のJSON構造。
type RecordInput struct {
	// Filename は音声ファイル名。
	Filename string `json:"filename"`
	// Title は説教タイトル。
	Title string `json:"title"`
	// Date は説教日付（YYYY-MM-DD形式）。
	Date string `json:"date"`
	// Year は説教年。
	Year int `json:"year"`
	// Themes はテーマタグの配列。
	Themes []string `json:"themes"`
	// URL は音声ファイルのURL。
	URL string `json:"url"`
}

// ToRecord は取り込み入力を検証済みのRecordに変換する。
// 日付の解析・IDの導出・不変条件の検証を行う。
func (in RecordInput) ToRecord() (Record, error) {
	date, err := time.Parse(DateLayout, in.Date)
	if err != nil {
		return Record{}, fmt.Errorf("日付の解析に失敗 (filename=%q, date=%q): %w", in.Filename, in.Date, err)
	}

	now := time.Now().UTC()
	r := Record{
		ID:        IDFromFilename(in.Filename),
		Filename:  in.Filename,
		Title:     in.Title,
		Date:      date,
		Year:      in.Year,
		Themes:    set.New(in.Themes...),
		URL:       in.URL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}
