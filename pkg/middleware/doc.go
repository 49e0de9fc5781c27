// Package middleware はpulpitサーバーで使用するGinミドルウェアを提供する。
// パニック回復・CORS・リクエストID付与・内部API用のJWT認証を含む。
package middleware
