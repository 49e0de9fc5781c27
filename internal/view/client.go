package view

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nao1215/pulpit/internal/sermon"
	"github.com/nao1215/pulpit/pkg/httpclient"
)

// ErrMalformedResponse はエンドポイントの応答に必須フィールドが欠けていることを表す。
var ErrMalformedResponse = errors.New("レスポンスに必須フィールドが含まれていません")

// SermonItem は一覧に表示する1件分の説教情報。
type SermonItem struct {
	// ID は説教の一意識別子。
	ID string `json:"id"`
	// Title は説教タイトル。
	Title string `json:"title"`
	// Date は説教日付（YYYY-MM-DD）。
	Date string `json:"date"`
	// Year は説教年。
	Year int `json:"year"`
	// Themes はテーマタグの配列。
	Themes []string `json:"themes"`
	// URL は音声ファイルの再生・ダウンロード先URL。
	URL string `json:"url"`
}

// QueryResult は検索クエリ1回分の結果。
type QueryResult struct {
	// Sermons は該当した説教の配列（ソート済み）。
	Sermons []SermonItem `json:"sermons"`
	// Total は該当件数。
	Total int `json:"total"`
}

// Theme はテーマチップ1つ分の表示情報。
type Theme struct {
	// Name はテーマ名。
	Name string `json:"name"`
	// Count はこのテーマを持つ説教の件数。
	Count int `json:"count"`
}

// Stats はヘッダーに表示する統計サマリー。
type Stats struct {
	// TotalSermons は総説教数。
	TotalSermons int `json:"total_sermons"`
	// DateRange は説教日付の範囲。
	DateRange struct {
		// Earliest は最古の説教日付。
		Earliest *string `json:"earliest"`
		// Latest は最新の説教日付。
		Latest *string `json:"latest"`
	} `json:"date_range"`
}

// Client はpulpit APIの閲覧用クライアント。
// 応答の必須フィールドを検証し、欠けている場合はErrMalformedResponseを返す。
type Client struct {
	// api はJSON HTTPクライアント。
	api *httpclient.Client
}

// NewClient は指定されたベースURLに接続する閲覧用クライアントを生成する。
func NewClient(baseURL string) *Client {
	return &Client{api: httpclient.New(baseURL)}
}

// FetchSermons は検索条件に一致する説教一覧を取得する。
func (c *Client) FetchSermons(ctx context.Context, params sermon.Params) (*QueryResult, error) {
	values := url.Values{}
	if params.Search != "" {
		values.Set("search", params.Search)
	}
	for _, theme := range params.Themes.Members() {
		values.Add("themes", theme)
	}
	if params.Sort != "" {
		values.Set("sort", string(params.Sort))
	}
	if params.Limit > 0 {
		values.Set("limit", strconv.Itoa(params.Limit))
	}

	path := "/api/v1/sermons"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result QueryResult
	if err := c.api.GetJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("説教一覧の取得に失敗: %w", err)
	}

	for _, item := range result.Sermons {
		if item.ID == "" || item.Title == "" || item.URL == "" {
			return nil, fmt.Errorf("%w: id=%q, title=%q, url=%q",
				ErrMalformedResponse, item.ID, item.Title, item.URL)
		}
	}
	return &result, nil
}

// FetchThemes はテーマチップ表示用のテーマ一覧を取得する。
func (c *Client) FetchThemes(ctx context.Context) ([]Theme, error) {
	var result struct {
		Themes []Theme `json:"themes"`
	}
	if err := c.api.GetJSON(ctx, "/api/v1/themes", &result); err != nil {
		return nil, fmt.Errorf("テーマ一覧の取得に失敗: %w", err)
	}

	for _, theme := range result.Themes {
		if theme.Name == "" {
			return nil, fmt.Errorf("%w: テーマ名が空です", ErrMalformedResponse)
		}
	}
	return result.Themes, nil
}

// FetchStats はヘッダー表示用の統計サマリーを取得する。
func (c *Client) FetchStats(ctx context.Context) (*Stats, error) {
	var result Stats
	if err := c.api.GetJSON(ctx, "/api/v1/stats", &result); err != nil {
		return nil, fmt.Errorf("統計サマリーの取得に失敗: %w", err)
	}
	return &result, nil
}
