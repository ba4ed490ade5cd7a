package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"portfolio-admin/internal/audit/domain"
	auditrepo "portfolio-admin/internal/audit/repository"
	"portfolio-admin/internal/telemetry"
	telemetrydomain "portfolio-admin/internal/telemetry/domain"
)

// eventSource tags audit events exported as telemetry.
const eventSource = "audit"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. Used by the auth service and the admin API middleware.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, actor, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional telemetry emitter.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	emitter     telemetry.EventEmitter
	log         *slog.Logger
	now         func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo and mirrors each entry to emitter.
// Any of repo, ipExtractor, emitter may be nil; a nil ipExtractor records IP as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, emitter telemetry.EventEmitter, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{
		repo:        repo,
		ipExtractor: ipExtractor,
		emitter:     emitter,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, actor, action, resource, metadata string) {
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now(),
	}
	if l.repo != nil {
		if err := l.repo.Create(ctx, entry); err != nil {
			l.log.Error("audit: failed to log event", "action", action, "resource", resource, "err", err)
		}
	}
	telemetry.EmitAsync(l.emitter, &telemetrydomain.Event{
		EventType: action,
		Source:    eventSource,
		Actor:     actor,
		Resource:  resource,
		IP:        ip,
		Metadata:  []byte(metadata),
		CreatedAt: entry.CreatedAt,
	})
}

// Nop is an AuditLogger that records nothing.
type Nop struct{}

func (Nop) LogEvent(context.Context, string, string, string, string) {}
