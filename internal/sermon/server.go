package sermon

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/pulpit/pkg/middleware"
	"github.com/nao1215/pulpit/pkg/set"
)

// Server は説教アーカイブのHTTPサーバー。
// 閲覧用の公開APIと、取り込み・再読み込み用のJWT保護された内部APIを提供する。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store は説教レコードストア。
	store *Store
	// jwtSecret は内部API保護用のJWT署名鍵。
	jwtSecret string
	// enableDevToken は開発用トークン発行エンドポイントを有効にするかどうか。
	enableDevToken bool
}

// NewServer は新しい説教アーカイブサーバーを生成する。
// storeは呼び出し側が初期化済みのものを渡す。
func NewServer(port string, store *Store) *Server {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	frontendURL := getEnvOr("FRONTEND_URL", "http://localhost:3000")

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))

	s := &Server{
		router:         router,
		port:           port,
		store:          store,
		jwtSecret:      jwtSecret,
		enableDevToken: os.Getenv("ENABLE_DEV_TOKEN") == "true",
	}
	s.setupRoutes()

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// getEnvOr は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		// 説教の検索・一覧取得
		api.GET("/sermons", s.handleListSermons())
		// 説教の詳細取得
		api.GET("/sermons/:id", s.handleGetSermon())
		// テーマ一覧取得
		api.GET("/themes", s.handleThemes())
		// 統計サマリー取得
		api.GET("/stats", s.handleStats())

		// 取り込み・再読み込み（内部API）
		internal := api.Group("/internal")
		internal.Use(middleware.JWTAuth(s.jwtSecret))
		{
			internal.POST("/import", s.handleImport())
			internal.POST("/reload", s.handleReload())
		}
	}

	// 開発用トークン発行（ENABLE_DEV_TOKEN=true のときのみ）
	if s.enableDevToken {
		s.router.POST("/auth/dev-token", s.handleDevToken())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "pulpit"})
	})
}

// sermonResponse は説教レコードのJSONレスポンス構造。
type sermonResponse struct {
	// ID はファイル名から導出された一意識別子。
	ID string `json:"id"`
	// Filename は元の音声ファイル名。
	Filename string `json:"filename"`
	// Title は説教タイトル。
	Title string `json:"title"`
	// Date は説教日付（YYYY-MM-DD）。
	Date string `json:"date"`
	// Year は説教年。
	Year int `json:"year"`
	// Themes はテーマタグの配列（名前昇順）。
	Themes []string `json:"themes"`
	// URL は音声ファイルの再生・ダウンロード先URL。
	URL string `json:"url"`
	// CreatedAt はレコード作成日時。
	CreatedAt string `json:"created_at"`
	// UpdatedAt はレコード更新日時。
	UpdatedAt string `json:"updated_at"`
}

// toSermonResponse はRecordをJSONレスポンスに変換する。
func toSermonResponse(r Record) sermonResponse {
	return sermonResponse{
		ID:        r.ID,
		Filename:  r.Filename,
		Title:     r.Title,
		Date:      r.DateString(),
		Year:      r.Year,
		Themes:    r.SortedThemes(),
		URL:       r.URL,
		CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: r.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// toSermonResponses はRecordスライスをJSONレスポンスのスライスに変換する。
func toSermonResponses(records []Record) []sermonResponse {
	responses := make([]sermonResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, toSermonResponse(r))
	}
	return responses
}

// handleListSermons は検索・テーマフィルタ・ソートを適用した説教一覧を返すハンドラ。
// クエリパラメータ: search（自由検索）、themes（複数指定可）、sort、limit。
func (s *Server) handleListSermons() gin.HandlerFunc {
	return func(c *gin.Context) {
		search := c.Query("search")
		themes := c.QueryArray("themes")
		sortKey := ParseSortKey(c.Query("sort"))

		limit := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limitには0以上の整数を指定してください"})
				return
			}
			limit = parsed
		}

		params := Params{
			Search: search,
			Themes: set.New(themes...),
			Sort:   sortKey,
			Limit:  limit,
		}

		matched, total := Query(s.store.Records(), params)

		c.JSON(http.StatusOK, gin.H{
			"sermons": toSermonResponses(matched),
			"total":   total,
			"filters": gin.H{
				"search": search,
				"themes": themes,
				"sort":   string(sortKey),
			},
		})
	}
}

// handleGetSermon は指定されたIDの説教詳細を返すハンドラ。
func (s *Server) handleGetSermon() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		for _, r := range s.store.Records() {
			if r.ID == id {
				c.JSON(http.StatusOK, toSermonResponse(r))
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "説教が見つかりません"})
	}
}

// handleThemes はアーカイブに存在する全テーマと件数を返すハンドラ。
// 並びは件数降順・同数は名前昇順。表示順の調整はフロントエンドの責務。
func (s *Server) handleThemes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"themes": ThemeCounts(s.store.Records()),
		})
	}
}

// handleStats はアーカイブ全体の統計サマリーを返すハンドラ。
func (s *Server) handleStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Summarize(s.store.Records()))
	}
}

// importRequest は取り込みリクエストのJSON構造。
type importRequest struct {
	// Sermons は取り込む説教レコードの配列。
	Sermons []RecordInput `json:"sermons" binding:"required"`
}

// handleImport は説教レコードの一括取り込みを処理するハンドラ。
// 既存レコードをすべて置き換える。1件でも検証に失敗した場合は何も変更しない。
func (s *Server) handleImport() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req importRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		records := make([]Record, 0, len(req.Sermons))
		for _, in := range req.Sermons {
			r, err := in.ToRecord()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("レコードの検証に失敗: %v", err)})
				return
			}
			records = append(records, r)
		}

		if err := s.store.ReplaceAll(c.Request.Context(), records); err != nil {
			log.Printf("レコード取り込みエラー (operator=%s): %v", middleware.GetOperator(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "レコードの取り込みに失敗しました"})
			return
		}

		log.Printf("%d件のレコードを取り込みました (operator=%s)", len(records), middleware.GetOperator(c))
		c.JSON(http.StatusOK, gin.H{"imported": len(records)})
	}
}

// handleReload はSQLiteからスナップショットを読み直すハンドラ。
// 外部プロセスがDBを直接更新した場合の反映に使用する。
func (s *Server) handleReload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.Reload(c.Request.Context()); err != nil {
			log.Printf("スナップショット再読み込みエラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "スナップショットの再読み込みに失敗しました"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": len(s.store.Records())})
	}
}

// devTokenRequest は開発用トークン発行リクエストのJSON構造。
type devTokenRequest struct {
	// Operator は運用担当者の識別子。
	Operator string `json:"operator" binding:"required"`
}

// handleDevToken は開発用のJWTトークンを発行するハンドラ。
// ENABLE_DEV_TOKEN=true のときのみルーティングされる。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req devTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, req.Operator)
		if err != nil {
			log.Printf("開発用トークン発行エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
