package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Mailer 发送账户相关邮件
type Mailer interface {
	SendVerification(ctx context.Context, to, link string) error
}

// LogMailer 不真正发信，只把邮件内容写进日志，适合开发环境
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger.Named("mailer")}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("Verification email",
		zap.String("to", to),
		zap.String("subject", "Verify your email address"),
		zap.String("link", link),
	)
	return nil
}
