package sermon

import "testing"

func TestThemeCounts(t *testing.T) {
	t.Parallel()

	t.Run("正常系_全テーマと件数が件数降順で返る", func(t *testing.T) {
		t.Parallel()

		got := ThemeCounts(threeSermons(t))
		want := []ThemeCount{
			{Name: "Grace & Gospel", Count: 2},
			{Name: "Anointing & Power", Count: 1},
			{Name: "Holy Spirit", Count: 1},
		}

		if len(got) != len(want) {
			t.Fatalf("期待するテーマ数 %d, 実際のテーマ数 %d: %v", len(want), len(got), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("位置 %d: 期待 %+v, 実際 %+v", i, want[i], got[i])
			}
		}
	})

	t.Run("正常系_同数のテーマは名前昇順で並ぶ", func(t *testing.T) {
		t.Parallel()

		got := ThemeCounts(threeSermons(t))
		// Anointing & Power と Holy Spirit は同数（1件）
		if got[1].Name != "Anointing & Power" || got[2].Name != "Holy Spirit" {
			t.Errorf("同数テーマの並びが名前昇順ではありません: %v", got)
		}
	})

	t.Run("正常系_空のレコード集合では空のスライスが返る", func(t *testing.T) {
		t.Parallel()

		if got := ThemeCounts(nil); len(got) != 0 {
			t.Errorf("期待するテーマ数 0, 実際のテーマ数 %d", len(got))
		}
	})

	t.Run("正常系_同一入力に対して常に同一の順序を返す", func(t *testing.T) {
		t.Parallel()

		records := threeSermons(t)
		first := ThemeCounts(records)
		for i := 0; i < 10; i++ {
			again := ThemeCounts(records)
			for j := range first {
				if first[j] != again[j] {
					t.Fatalf("再実行で順序が変わりました: %v != %v", first, again)
				}
			}
		}
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("正常系_総数と年別件数と日付範囲が計算される", func(t *testing.T) {
		t.Parallel()

		stats := Summarize(threeSermons(t))

		if stats.TotalSermons != 3 {
			t.Errorf("期待するtotal_sermons 3, 実際 %d", stats.TotalSermons)
		}
		if stats.Themes["Grace & Gospel"] != 2 {
			t.Errorf("期待するGrace & Gospelの件数 2, 実際 %d", stats.Themes["Grace & Gospel"])
		}
		if stats.Years[2020] != 1 || stats.Years[2021] != 1 || stats.Years[2019] != 1 {
			t.Errorf("年別件数が不正です: %v", stats.Years)
		}
		if stats.DateRange.Earliest == nil || *stats.DateRange.Earliest != "2019-03-10" {
			t.Errorf("期待するearliest 2019-03-10, 実際 %v", stats.DateRange.Earliest)
		}
		if stats.DateRange.Latest == nil || *stats.DateRange.Latest != "2021-06-15" {
			t.Errorf("期待するlatest 2021-06-15, 実際 %v", stats.DateRange.Latest)
		}
	})

	t.Run("正常系_空のレコード集合では日付範囲がnilになる", func(t *testing.T) {
		t.Parallel()

		stats := Summarize(nil)

		if stats.TotalSermons != 0 {
			t.Errorf("期待するtotal_sermons 0, 実際 %d", stats.TotalSermons)
		}
		if stats.DateRange.Earliest != nil || stats.DateRange.Latest != nil {
			t.Errorf("空の集合なのに日付範囲が設定されています: %+v", stats.DateRange)
		}
	})
}
