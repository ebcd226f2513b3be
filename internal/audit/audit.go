// Package audit registra eventos de seguridad del ciclo de sesión en el log
// estructurado. Los eventos llevan siempre el request id del contexto, así un
// incidente se reconstruye correlacionando esta línea con el access log.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tgsession/internal/observability/logger"
)

// Eventos emitidos por los controllers de auth.
const (
	EventLogin      = "session.login"
	EventRefresh    = "session.refresh"
	EventRoleSwitch = "session.role_switch"
	EventLogout     = "session.logout"
)

// Log escribe un evento de auditoría. Hoy el sink es el logger del proceso;
// si mañana hace falta un sink externo, este es el único punto a tocar.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).With(zap.String("audit_event", event)).Info("audit", fields...)
}
