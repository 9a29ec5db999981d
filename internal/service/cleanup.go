package service

import (
	"context"
	"log/slog"
	"time"
)

// TokenSweeper は期限切れトークンを定期的に削除するバックグラウンドワーカーです。
// 使用済み・期限切れの行は保持期間を過ぎた時点で物理削除される
type TokenSweeper struct {
	svc      AuthService
	interval time.Duration
	logger   *slog.Logger
}

func NewTokenSweeper(svc AuthService, interval time.Duration, logger *slog.Logger) *TokenSweeper {
	return &TokenSweeper{
		svc:      svc,
		interval: interval,
		logger:   logger,
	}
}

// Run はctxがキャンセルされるまで掃除を繰り返します。起動直後に一度実行し、
// 以後はinterval間隔で実行する
func (s *TokenSweeper) Run(ctx context.Context) {
	s.logger.Info("Token sweeper started", "interval", s.interval)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Token sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TokenSweeper) sweep(ctx context.Context) {
	if _, err := s.svc.PurgeExpiredTokens(ctx); err != nil {
		s.logger.Error("Token sweep failed", "error", err)
	}
}
