package sermon

import "sort"

// ThemeCount はテーマ名とそのテーマを持つレコード数の組。
// テーマは独立したエンティティではなく、レコードストアから導出される集計値。
type ThemeCount struct {
	// Name はテーマ名。
	Name string `json:"name"`
	// Count はこのテーマを持つレコードの数。
	Count int `json:"count"`
}

// ThemeCounts はレコード列に出現するすべてのテーマとその件数を返す。
// 並びは件数降順、同数はテーマ名昇順で決定的。
func ThemeCounts(records []Record) []ThemeCount {
	counts := make(map[string]int)
	for _, r := range records {
		for theme := range r.Themes {
			counts[theme]++
		}
	}

	result := make([]ThemeCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, ThemeCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	return result
}
