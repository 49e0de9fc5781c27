package sermon

// DateRange はレコード集合の最古・最新の説教日付。
// レコードが存在しない場合は両方nil。
type DateRange struct {
	// Earliest は最古の説教日付（YYYY-MM-DD）。
	Earliest *string `json:"earliest"`
	// Latest は最新の説教日付（YYYY-MM-DD）。
	Latest *string `json:"latest"`
}

// Stats はアーカイブ全体の統計サマリー。
type Stats struct {
	// TotalSermons は総レコード数。
	TotalSermons int `json:"total_sermons"`
	// Themes はテーマ名ごとのレコード数。
	Themes map[string]int `json:"themes"`
	// Years は年ごとのレコード数。
	Years map[int]int `json:"years"`
	// DateRange は説教日付の範囲。
	DateRange DateRange `json:"date_range"`
}

// Summarize はレコード列から統計サマリーを計算する。
// 空のレコード列に対しては件数0・日付範囲nilのサマリーを返す。
func Summarize(records []Record) Stats {
	stats := Stats{
		TotalSermons: len(records),
		Themes:       make(map[string]int),
		Years:        make(map[int]int),
	}

	for i, r := range records {
		for theme := range r.Themes {
			stats.Themes[theme]++
		}
		stats.Years[r.Year]++

		if i == 0 {
			earliest, latest := r.DateString(), r.DateString()
			stats.DateRange.Earliest = &earliest
			stats.DateRange.Latest = &latest
			continue
		}
		if d := r.DateString(); d < *stats.DateRange.Earliest {
			*stats.DateRange.Earliest = d
		}
		if d := r.DateString(); d > *stats.DateRange.Latest {
			*stats.DateRange.Latest = d
		}
	}
	return stats
}
