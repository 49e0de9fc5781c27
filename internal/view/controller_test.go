package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/pulpit/internal/sermon"
	"github.com/nao1215/pulpit/pkg/set"
)

// fakeAPI はテスト用のSermonAPI実装。
// 呼び出しを記録し、検索文字列ごとに応答をブロックさせることもできる。
type fakeAPI struct {
	mu        sync.Mutex
	calls     []sermon.Params
	gates     map[string]chan struct{}
	fetchErr  error
	themes    []Theme
	stats     *Stats
	statsErr  error
	themesErr error
}

func (f *fakeAPI) FetchSermons(ctx context.Context, params sermon.Params) (*QueryResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	gate := f.gates[params.Search]
	fetchErr := f.fetchErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return &QueryResult{
		Sermons: []SermonItem{{
			ID:    "echo-" + params.Search,
			Title: "Echo " + params.Search,
			URL:   "https://media.example.com/echo.mp3",
		}},
		Total: 1,
	}, nil
}

func (f *fakeAPI) FetchThemes(_ context.Context) ([]Theme, error) {
	if f.themesErr != nil {
		return nil, f.themesErr
	}
	return f.themes, nil
}

func (f *fakeAPI) FetchStats(_ context.Context) (*Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

// fetchCalls は記録された呼び出しの複製を返す。
func (f *fakeAPI) fetchCalls() []sermon.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sermon.Params(nil), f.calls...)
}

// fakeRenderer はテスト用のRenderer実装。描画呼び出しを記録する。
type fakeRenderer struct {
	mu           sync.Mutex
	lists        []*QueryResult
	errs         []error
	chips        []set.Set[string]
	stats        []*Stats
	placeholders int
}

func (r *fakeRenderer) RenderList(result *QueryResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, result)
}

func (r *fakeRenderer) RenderError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *fakeRenderer) RenderChips(_ []Theme, selected set.Set[string]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chips = append(r.chips, selected)
}

func (r *fakeRenderer) RenderStats(stats *Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, stats)
}

func (r *fakeRenderer) RenderStatsPlaceholder() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placeholders++
}

// listCount は記録された一覧描画の回数を返す。
func (r *fakeRenderer) listCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}

// lastList は最後に描画された一覧を返す。未描画の場合はnil。
func (r *fakeRenderer) lastList() *QueryResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lists) == 0 {
		return nil
	}
	return r.lists[len(r.lists)-1]
}

// errCount は記録されたエラー描画の回数を返す。
func (r *fakeRenderer) errCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// fakePlayer はテスト用のPlayer実装。操作列を記録する。
type fakePlayer struct {
	mu      sync.Mutex
	actions []string
	playErr error
}

func (p *fakePlayer) Play(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, "play:"+url)
	return p.playErr
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, "stop")
}

// actionLog は記録された操作列の複製を返す。
func (p *fakePlayer) actionLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

// waitUntil は条件が成立するまでポーリングする。タイムアウトでテストを失敗させる。
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("条件が成立する前にタイムアウトしました")
}

// newTestController はデバウンス無効のテスト用コントローラを生成する。
func newTestController(t *testing.T) (*Controller, *fakeAPI, *fakeRenderer, *fakePlayer) {
	t.Helper()

	api := &fakeAPI{
		themes: []Theme{{Name: "Grace & Gospel", Count: 2}, {Name: "Holy Spirit", Count: 1}},
		stats:  &Stats{TotalSermons: 3},
	}
	renderer := &fakeRenderer{}
	player := &fakePlayer{}
	c := NewController(api, renderer, player, 0)
	t.Cleanup(c.Close)
	return c, api, renderer, player
}

func TestControllerInit(t *testing.T) {
	t.Parallel()

	t.Run("正常系_統計とチップと一覧が描画される", func(t *testing.T) {
		t.Parallel()

		c, _, renderer, _ := newTestController(t)
		c.Init(context.Background())

		waitUntil(t, func() bool { return renderer.listCount() == 1 })

		renderer.mu.Lock()
		statsCount, chipsCount := len(renderer.stats), len(renderer.chips)
		renderer.mu.Unlock()
		if statsCount != 1 {
			t.Errorf("期待する統計描画回数 1, 実際 %d", statsCount)
		}
		if chipsCount != 1 {
			t.Errorf("期待するチップ描画回数 1, 実際 %d", chipsCount)
		}
	})

	t.Run("正常系_統計の取得失敗はプレースホルダー表示になり一覧は描画される", func(t *testing.T) {
		t.Parallel()

		c, api, renderer, _ := newTestController(t)
		api.statsErr = errors.New("stats endpoint down")
		c.Init(context.Background())

		waitUntil(t, func() bool { return renderer.listCount() == 1 })

		renderer.mu.Lock()
		placeholders, statsCount := renderer.placeholders, len(renderer.stats)
		renderer.mu.Unlock()
		if placeholders != 1 {
			t.Errorf("期待するプレースホルダー描画回数 1, 実際 %d", placeholders)
		}
		if statsCount != 0 {
			t.Errorf("統計取得失敗なのに統計が描画されています: %d", statsCount)
		}
	})
}

func TestControllerThemeChips(t *testing.T) {
	t.Parallel()

	t.Run("正常系_チップの選択はトグルされクエリに反映される", func(t *testing.T) {
		t.Parallel()

		c, api, _, _ := newTestController(t)

		c.ToggleTheme("Holy Spirit")
		if !c.SelectedThemes().Has("Holy Spirit") {
			t.Error("テーマが選択状態になっていません")
		}

		waitUntil(t, func() bool { return len(api.fetchCalls()) >= 1 })
		calls := api.fetchCalls()
		if !calls[len(calls)-1].Themes.Has("Holy Spirit") {
			t.Error("選択したテーマがクエリ条件に含まれていません")
		}

		c.ToggleTheme("Holy Spirit")
		if c.SelectedThemes().Len() != 0 {
			t.Error("再トグルでテーマが解除されていません")
		}
	})

	t.Run("正常系_すべて選択はテーマ選択を全解除する", func(t *testing.T) {
		t.Parallel()

		c, api, _, _ := newTestController(t)

		c.ToggleTheme("Holy Spirit")
		c.ToggleTheme("Grace & Gospel")
		c.SelectAll()

		if c.SelectedThemes().Len() != 0 {
			t.Errorf("すべて選択後もテーマが残っています: %v", c.SelectedThemes().Members())
		}

		// クエリは非同期に記録されるため、無フィルタ条件の呼び出しが
		// 発行されていることだけを確認する
		waitUntil(t, func() bool {
			for _, call := range api.fetchCalls() {
				if call.Themes.IsEmpty() {
					return true
				}
			}
			return false
		})
	})
}

func TestControllerSearchDebounce(t *testing.T) {
	t.Parallel()

	t.Run("正常系_静止期間内の連続入力は最後の値だけがクエリされる", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		renderer := &fakeRenderer{}
		c := NewController(api, renderer, &fakePlayer{}, 50*time.Millisecond)
		t.Cleanup(c.Close)

		c.SetSearchInput("g")
		c.SetSearchInput("gr")
		c.SetSearchInput("grace")

		waitUntil(t, func() bool { return len(api.fetchCalls()) >= 1 })
		// 静止期間の3倍待っても追加のクエリが発行されないことを確認する
		time.Sleep(150 * time.Millisecond)

		calls := api.fetchCalls()
		if len(calls) != 1 {
			t.Fatalf("期待するクエリ回数 1, 実際 %d", len(calls))
		}
		if calls[0].Search != "grace" {
			t.Errorf("期待する検索文字列 %q, 実際 %q", "grace", calls[0].Search)
		}
	})
}

func TestControllerLastRequestWins(t *testing.T) {
	t.Parallel()

	t.Run("正常系_遅い古いクエリの結果は適用されない", func(t *testing.T) {
		t.Parallel()

		slowGate := make(chan struct{})
		api := &fakeAPI{gates: map[string]chan struct{}{"slow": slowGate}}
		renderer := &fakeRenderer{}
		c := NewController(api, renderer, &fakePlayer{}, 0)
		t.Cleanup(c.Close)

		c.SetSearchInput("slow")
		waitUntil(t, func() bool { return len(api.fetchCalls()) == 1 })

		c.SetSearchInput("fast")
		waitUntil(t, func() bool { return renderer.listCount() >= 1 })

		// 古いクエリを解放しても結果は破棄される
		close(slowGate)
		time.Sleep(50 * time.Millisecond)

		if got := renderer.listCount(); got != 1 {
			t.Fatalf("期待する一覧描画回数 1, 実際 %d", got)
		}
		last := renderer.lastList()
		if last.Sermons[0].ID != "echo-fast" {
			t.Errorf("最新クエリ以外の結果が適用されました: %v", last.Sermons[0].ID)
		}
	})
}

func TestControllerErrorState(t *testing.T) {
	t.Parallel()

	t.Run("異常系_クエリ失敗時は一覧の代わりにエラーが描画される", func(t *testing.T) {
		t.Parallel()

		c, api, renderer, _ := newTestController(t)
		api.mu.Lock()
		api.fetchErr = errors.New("endpoint unreachable")
		api.mu.Unlock()

		c.SetSearchInput("anything")

		waitUntil(t, func() bool { return renderer.errCount() == 1 })
		if renderer.listCount() != 0 {
			t.Error("クエリ失敗なのに一覧が描画されています")
		}
	})
}

func TestControllerToggleExpand(t *testing.T) {
	t.Parallel()

	t.Run("正常系_別アイテム展開時は先に再生中の音声を停止する", func(t *testing.T) {
		t.Parallel()

		c, _, _, player := newTestController(t)

		c.ToggleExpand("sermon-y", "https://media.example.com/y.mp3")
		if c.ExpandedID() != "sermon-y" {
			t.Fatalf("期待する展開ID %q, 実際 %q", "sermon-y", c.ExpandedID())
		}

		c.ToggleExpand("sermon-x", "https://media.example.com/x.mp3")
		if c.ExpandedID() != "sermon-x" {
			t.Errorf("期待する展開ID %q, 実際 %q", "sermon-x", c.ExpandedID())
		}

		want := []string{
			"stop",
			"play:https://media.example.com/y.mp3",
			"stop",
			"play:https://media.example.com/x.mp3",
		}
		got := player.actionLog()
		if len(got) != len(want) {
			t.Fatalf("期待する操作列 %v, 実際 %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("位置 %d: 期待する操作 %q, 実際 %q", i, want[i], got[i])
			}
		}
	})

	t.Run("正常系_展開中のアイテムを再トグルすると折りたたみ音声を停止する", func(t *testing.T) {
		t.Parallel()

		c, _, _, player := newTestController(t)

		c.ToggleExpand("sermon-x", "https://media.example.com/x.mp3")
		c.ToggleExpand("sermon-x", "https://media.example.com/x.mp3")

		if c.ExpandedID() != "" {
			t.Errorf("再トグル後も展開されています: %q", c.ExpandedID())
		}

		got := player.actionLog()
		if len(got) == 0 || got[len(got)-1] != "stop" {
			t.Errorf("折りたたみ時に音声が停止されていません: %v", got)
		}
	})

	t.Run("正常系_再生開始の失敗は許容されアイテムは展開されたまま", func(t *testing.T) {
		t.Parallel()

		c, _, _, player := newTestController(t)
		player.playErr = errors.New("autoplay blocked")

		c.ToggleExpand("sermon-x", "https://media.example.com/x.mp3")

		if c.ExpandedID() != "sermon-x" {
			t.Errorf("再生失敗でアイテムが折りたたまれました: %q", c.ExpandedID())
		}
	})
}
