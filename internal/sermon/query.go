package sermon

import (
	"sort"
	"strings"

	"github.com/nao1215/pulpit/pkg/set"
)

// SortKey はクエリ結果の並び順を表す。
type SortKey string

const (
	// SortNewest は日付の新しい順。同日付はタイトル昇順。
	SortNewest SortKey = "newest"
	// SortOldest は日付の古い順。同日付はタイトル昇順。
	SortOldest SortKey = "oldest"
	// SortTitleAsc はタイトル昇順（大文字小文字を区別しない）。同タイトルは日付降順。
	SortTitleAsc SortKey = "title"
	// SortTitleDesc はタイトル降順（大文字小文字を区別しない）。同タイトルは日付降順。
	SortTitleDesc SortKey = "title-desc"
)

// ParseSortKey は文字列をSortKeyに変換する。
// "title-asc"は"title"の別名として受け付ける。
// 未知の値は結果を決定的に保つためSortNewestにフォールバックする。
func ParseSortKey(s string) SortKey {
	switch s {
	case "oldest":
		return SortOldest
	case "title", "title-asc":
		return SortTitleAsc
	case "title-desc":
		return SortTitleDesc
	default:
		return SortNewest
	}
}

// Params は1回のクエリ実行に渡す検索条件。
// ユーザー操作のたびに新しく構築される不変値であり、永続化しない。
type Params struct {
	// Search は自由入力の検索文字列。空はすべてにマッチする。
	Search string
	// Themes は選択中テーマの集合。空は「すべて」を意味し、テーマ条件を課さない。
	Themes set.Set[string]
	// Sort は並び順。
	Sort SortKey
	// Limit は返却する最大件数。0以下は無制限。
	Limit int
}

// Query はレコード列に検索・テーマフィルタ・ソートを適用し、
// 該当レコード列とその件数を返す純粋関数。
// レコードを変更せず副作用を持たないため、並行して安全に呼び出せる。
func Query(records []Record, p Params) ([]Record, int) {
	needle := strings.ToLower(strings.TrimSpace(p.Search))

	matched := make([]Record, 0, len(records))
	for _, r := range records {
		if !matchesSearch(r, needle) {
			continue
		}
		if !p.Themes.IsEmpty() && !r.Themes.Intersects(p.Themes) {
			continue
		}
		matched = append(matched, r)
	}

	sortRecords(matched, p.Sort)

	if p.Limit > 0 && len(matched) > p.Limit {
		matched = matched[:p.Limit]
	}
	return matched, len(matched)
}

// matchesSearch はレコードが検索文字列にマッチするかを判定する。
// タイトルの部分一致・日付文字列の部分一致・テーマ名の完全一致
// （いずれも大文字小文字を区別しない）のいずれかで成立する。
func matchesSearch(r Record, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Title), needle) {
		return true
	}
	if strings.Contains(r.DateString(), needle) {
		return true
	}
	for theme := range r.Themes {
		if strings.ToLower(theme) == needle {
			return true
		}
	}
	return false
}

// sortRecords はレコード列を指定された並び順でソートする。
// すべての並び順でタイブレークを定義し、同一入力に対して常に同一の順序を返す。
func sortRecords(records []Record, key SortKey) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch key {
		case SortOldest:
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return lessTitleThenID(a, b)
		case SortTitleAsc:
			if c := compareTitle(a, b); c != 0 {
				return c < 0
			}
			return lessDateDescThenID(a, b)
		case SortTitleDesc:
			if c := compareTitle(a, b); c != 0 {
				return c > 0
			}
			return lessDateDescThenID(a, b)
		default: // SortNewest
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return lessTitleThenID(a, b)
		}
	})
}

// compareTitle はタイトルを大文字小文字を区別せずに比較する。
func compareTitle(a, b Record) int {
	return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}

// lessTitleThenID はタイトル昇順、最後はID昇順で大小を決める。
func lessTitleThenID(a, b Record) bool {
	if c := compareTitle(a, b); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

// lessDateDescThenID は日付降順、最後はID昇順で大小を決める。
func lessDateDescThenID(a, b Record) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID < b.ID
}
