package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

// Clock returns the current instant. Services read "today" through it.
type Clock func() time.Time

// BaseService provides common functionality for all services
type BaseService struct {
	Clock Clock
	Cache portsrepo.AnalyticsCache
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a business rejection.
func (s *BaseService) LogWarn(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("reason", err.Error()))
	args = append(args, keyvals...)
	logger.Warn(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// Now returns the current UTC time.
func (s *BaseService) Now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

// Today returns the current calendar date.
func (s *BaseService) Today() time.Time {
	return domain.DateOf(s.Now())
}

// Invalidate evicts cached analytics for the given tags.
func (s *BaseService) Invalidate(tags ...string) {
	if s.Cache != nil && len(tags) > 0 {
		s.Cache.InvalidateTags(tags...)
	}
}

// Audit appends an audit entry inside the caller's unit of work.
func (s *BaseService) Audit(ctx context.Context, store portsrepo.Store, actorID string, action domain.AuditAction, entityType, entityID string, detail map[string]string) error {
	return store.Audit().AppendAudit(ctx, domain.AuditEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		At:         s.Now(),
		Detail:     detail,
	})
}

// handleRejection logs business rejections at warn and everything else at error.
func (s *BaseService) handleRejection(ctx context.Context, err error, msg string, keyvals ...any) {
	if isBusinessError(err) {
		s.LogWarn(ctx, err, msg, keyvals...)
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}
