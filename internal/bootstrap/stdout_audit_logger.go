package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Lasher77/CompanyDB/internal/shared/contextutil"
)

// StdoutAuditLogger writes audit entries to the process log. Suitable for
// single-instance deployments; swap for a persistent sink when audit
// retention matters.
type StdoutAuditLogger struct{}

func NewStdoutAuditLogger() *StdoutAuditLogger {
	return &StdoutAuditLogger{}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	fields := []zap.Field{
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	}
	if reqID := contextutil.GetRequestID(ctx); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	zap.L().Named("audit").Info("audit event", fields...)
}
