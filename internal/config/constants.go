// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "Tobira"
	AppVersion = "1.1.0"
)

// デフォルト設定値
const (
	DefaultServerPort = ":8080"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultBaseURL    = "http://localhost:3000"

	DefaultSessionTTL = 7 * 24 * time.Hour

	// トークン有効期限(分)。検証・マジックリンクは30分、リセットも30分
	DefaultVerificationTTLMinutes = 30
	DefaultResetTTLMinutes        = 30
	DefaultMagicLinkTTLMinutes    = 30

	// 期限切れ・使用済みトークンの保持期間と掃除間隔
	DefaultTokenRetention     = 7 * 24 * time.Hour
	DefaultTokenSweepInterval = 1 * time.Hour

	DefaultMailerType = "log"
)
