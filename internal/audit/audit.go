// Package audit records append-only AuditLog rows for entity
// mutations performed by the ingestion pipeline, grounded on the
// teacher's internal/security.AuditLogger (internal/security/audit.go)
// — generalized from HTTP-access rows written to a file to
// entity-mutation rows written to the AuditLog table (§3).
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/increff/noos-service/internal/storage"
)

// Logger appends AuditLog rows and mirrors each one to the structured
// logger, the same dual-sink shape as the teacher's AuditLogger.Log.
type Logger struct {
	storage *storage.Storage
	logger  *slog.Logger
}

func New(s *storage.Storage, logger *slog.Logger) *Logger {
	return &Logger{storage: s, logger: logger}
}

// Record appends one AuditLog row. entityType/entityID identify the
// mutated row, action is e.g. "INSERT"/"UPDATE"/"BULK_DELETE"/
// "BULK_INSERT", details carries the field diff or a summary message.
func (l *Logger) Record(entityType, entityID, action, details, modifiedBy string) {
	entry := storage.AuditLog{
		Timestamp:  time.Now(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		ModifiedBy: modifiedBy,
	}
	if err := l.storage.DB.Create(&entry).Error; err != nil {
		l.logger.Error("failed to write audit log", "error", err, "entityType", entityType, "action", action)
		return
	}
	l.logger.Log(context.Background(), slog.LevelInfo, "audit",
		"entityType", entityType, "entityId", entityID, "action", action)
}

// Recent returns the most recent audit rows, newest first.
func (l *Logger) Recent(limit int) ([]storage.AuditLog, error) {
	var rows []storage.AuditLog
	err := l.storage.DB.Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}
