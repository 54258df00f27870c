// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 運用APIのJWT認証トークン検証、パニックリカバリ、CORS設定など、
// ディスパッチサービスのHTTP層で共通して使用するミドルウェアを含む。
package middleware
