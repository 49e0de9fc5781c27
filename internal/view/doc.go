// Package view は説教ディレクトリ閲覧クライアントの状態管理を提供する。
// テーマチップの選択状態・デバウンスされた検索入力・最新リクエスト優先の
// クエリ実行・排他的なプレイヤー展開状態を1つのコントローラに集約する。
// 画面描画と音声再生はRendererとPlayerインターフェースの実装側の責務。
package view
