package view

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/nao1215/pulpit/internal/sermon"
	"github.com/nao1215/pulpit/pkg/set"
)

// SermonAPI はコントローラが使用するクエリエンドポイントの抽象。
// 本番ではClientが実装する。
type SermonAPI interface {
	// FetchSermons は検索条件に一致する説教一覧を取得する。
	FetchSermons(ctx context.Context, params sermon.Params) (*QueryResult, error)
	// FetchThemes はテーマ一覧を取得する。
	FetchThemes(ctx context.Context) ([]Theme, error)
	// FetchStats は統計サマリーを取得する。
	FetchStats(ctx context.Context) (*Stats, error)
}

// Renderer は画面描画の抽象。コントローラは状態が変わるたびに呼び出す。
type Renderer interface {
	// RenderList は説教一覧を描画する。
	RenderList(result *QueryResult)
	// RenderError は一覧領域をエラー表示に置き換える。
	RenderError(err error)
	// RenderChips はテーマチップと選択状態を描画する。
	RenderChips(themes []Theme, selected set.Set[string])
	// RenderStats はヘッダーの統計サマリーを描画する。
	RenderStats(stats *Stats)
	// RenderStatsPlaceholder は統計の取得失敗時にプレースホルダーを描画する。
	RenderStatsPlaceholder()
}

// Player は音声再生の抽象。
type Player interface {
	// Play は指定URLの音声を再生する。自動再生ブロック等で失敗することがある。
	Play(url string) error
	// Stop は再生中の音声を停止する。再生していない場合は何もしない。
	Stop()
}

// Controller は閲覧画面の状態を管理する。
// ユーザー操作のたびに不変のsermon.Paramsを構築してクエリを1回実行し、
// 結果を1回描画する。実行中のクエリより新しい操作が来た場合は
// 古いクエリをキャンセルし、最新のリクエストの結果だけを適用する。
type Controller struct {
	// api はクエリエンドポイントのクライアント。
	api SermonAPI
	// renderer は画面描画の実装。
	renderer Renderer
	// player は音声再生の実装。
	player Player
	// debouncer は検索入力のデバウンサー。
	debouncer *Debouncer

	// mu は以下のすべての状態を保護する。
	mu sync.Mutex
	// search は確定済みの検索文字列。
	search string
	// selected は選択中テーマの集合。空は「すべて」。
	selected set.Set[string]
	// sort は現在の並び順。
	sort sermon.SortKey
	// themes は取得済みのテーマカタログ。
	themes []Theme
	// expandedID は展開中（プレイヤー表示中）の説教ID。未展開は空文字列。
	// 同時に展開できるのは1件のみ。
	expandedID string
	// seq はクエリ実行の通し番号。最新の番号の結果だけを画面に適用する。
	seq uint64
	// cancel は実行中クエリのキャンセル関数。
	cancel context.CancelFunc
}

// NewController は新しいコントローラを生成する。
// debounceWindowは検索入力の静止待ち時間。0以下でデバウンス無効。
func NewController(api SermonAPI, renderer Renderer, player Player, debounceWindow time.Duration) *Controller {
	c := &Controller{
		api:      api,
		renderer: renderer,
		player:   player,
		selected: set.New[string](),
		sort:     sermon.SortNewest,
	}
	c.debouncer = NewDebouncer(debounceWindow, c.applySearch)
	return c
}

// Init は初期表示に必要なデータを読み込む。
// 統計の取得失敗は一覧表示をブロックせず、プレースホルダー表示に切り替える。
func (c *Controller) Init(ctx context.Context) {
	stats, err := c.api.FetchStats(ctx)
	if err != nil {
		log.Printf("統計サマリーの取得に失敗（プレースホルダー表示に切り替え）: %v", err)
		c.renderer.RenderStatsPlaceholder()
	} else {
		c.renderer.RenderStats(stats)
	}

	themes, err := c.api.FetchThemes(ctx)
	if err != nil {
		log.Printf("テーマ一覧の取得に失敗: %v", err)
		c.renderer.RenderError(err)
		return
	}

	c.mu.Lock()
	c.themes = themes
	c.renderer.RenderChips(themes, c.selected.Clone())
	c.refreshLocked()
	c.mu.Unlock()
}

// SetSearchInput は検索欄への入力を受け付ける。
// 静止期間が経過するまでクエリは実行されず、期間内の最後の入力が勝つ。
func (c *Controller) SetSearchInput(text string) {
	c.debouncer.Trigger(text)
}

// applySearch はデバウンス確定後の検索文字列を適用してクエリを実行する。
func (c *Controller) applySearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.search = text
	c.refreshLocked()
}

// ToggleTheme はテーマチップの選択状態を反転してクエリを実行する。
// すべてのテーマが解除された場合は「すべて」と同じ無フィルタ状態になる。
func (c *Controller) ToggleTheme(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected.Has(name) {
		c.selected.Remove(name)
	} else {
		c.selected.Add(name)
	}
	c.renderer.RenderChips(c.themes, c.selected.Clone())
	c.refreshLocked()
}

// SelectAll は「すべて」チップの選択を処理する。テーマ選択をすべて解除する。
func (c *Controller) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = set.New[string]()
	c.renderer.RenderChips(c.themes, c.selected.Clone())
	c.refreshLocked()
}

// SelectedThemes は現在選択中のテーマ集合の複製を返す。
func (c *Controller) SelectedThemes() set.Set[string] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected.Clone()
}

// SetSort は並び順を変更してクエリを実行する。
func (c *Controller) SetSort(key sermon.SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sort = key
	c.refreshLocked()
}

// ToggleExpand は説教アイテムのプレイヤー展開状態を切り替える。
// 別のアイテムが展開中の場合はそれを折りたたんで音声を停止してから展開する。
// 再生開始の失敗（自動再生ブロック等）は許容し、アイテムは展開されたままにする。
func (c *Controller) ToggleExpand(id, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expandedID == id {
		c.expandedID = ""
		c.player.Stop()
		return
	}

	// 展開は常に排他。先に他のアイテムの音声を止める。
	c.player.Stop()
	c.expandedID = id
	if err := c.player.Play(url); err != nil {
		log.Printf("音声の再生開始に失敗（手動操作用のコントロールは表示継続）: %v", err)
	}
}

// ExpandedID は現在展開中の説教IDを返す。未展開の場合は空文字列。
func (c *Controller) ExpandedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expandedID
}

// Close は保留中のデバウンスと実行中のクエリをキャンセルする。
func (c *Controller) Close() {
	c.debouncer.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// refreshLocked は現在の状態から不変のクエリ条件を構築して非同期に実行する。
// 呼び出し時点でmuを保持していること。
// 実行中の古いクエリはキャンセルし、結果の適用は最新の通し番号のものに限る。
func (c *Controller) refreshLocked() {
	params := sermon.Params{
		Search: c.search,
		Themes: c.selected.Clone(),
		Sort:   c.sort,
	}

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.seq++
	seq := c.seq

	go func() {
		result, err := c.api.FetchSermons(ctx, params)

		c.mu.Lock()
		defer c.mu.Unlock()

		// より新しいクエリが発行済みなら、この結果は古いので破棄する
		if seq != c.seq {
			return
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("説教一覧の取得に失敗: %v", err)
			c.renderer.RenderError(err)
			return
		}
		c.renderer.RenderList(result)
	}()
}
