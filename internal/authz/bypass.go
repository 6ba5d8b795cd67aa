package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/bk-med/kanban/internal/log"
)

// bypassKey is an unexported key type to prevent external forgery.
type bypassKey struct{}

// bypassInfo stores bypass metadata.
type bypassInfo struct {
	Reason    string
	Timestamp time.Time
	Principal Principal
}

// WithBypass creates a local bypass context. Only System or Test principals
// are allowed to call, the engine then admits everything through the
// superauthority rule. reason must be a stable audit identifier
// (e.g., "due-soon-scan", "auth-lookup").
func WithBypass(ctx context.Context, reason string) (context.Context, error) {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return nil, fmt.Errorf("authz: WithBypass requires a principal in context")
	}

	if !p.IsSystem() && !p.IsTest() {
		return nil, fmt.Errorf("authz: WithBypass requires system or test principal, got %s", p.String())
	}

	info := bypassInfo{
		Reason:    reason,
		Timestamp: time.Now(),
		Principal: p,
	}

	recordBypassAudit(ctx, info)

	return context.WithValue(ctx, bypassKey{}, info), nil
}

// RunWithBypass executes the bypass operation within a closure, limiting
// the bypass scope. Prefer this over WithBypass to keep the bypass context
// from spreading along the call chain.
//
// Example usage:
//
//	user, err := authz.RunWithBypass(ctx, "auth-lookup", func(ctx context.Context) (*store.User, error) {
//	    return users.GetByUsername(ctx, username)
//	})
func RunWithBypass[T any](ctx context.Context, reason string, fn func(ctx context.Context) (T, error)) (T, error) {
	bypassCtx, err := WithBypass(ctx, reason)
	if err != nil {
		var zero T
		return zero, err
	}

	return fn(bypassCtx)
}

// GetBypassInfo retrieves current bypass information.
// Used for audit and debugging.
func GetBypassInfo(ctx context.Context) (bypassInfo, bool) {
	info, ok := ctx.Value(bypassKey{}).(bypassInfo)
	return info, ok
}

// IsBypassActive checks if current context is in bypass state.
func IsBypassActive(ctx context.Context) bool {
	_, ok := ctx.Value(bypassKey{}).(bypassInfo)
	return ok
}

// bypassAuditRecord represents a bypass audit record.
type bypassAuditRecord struct {
	Timestamp   time.Time
	Principal   string
	Reason      string
	Operation   string
	Description string
}

// auditLogger is the bypass audit logger.
// Can be customized via SetAuditLogger.
var auditLogger func(ctx context.Context, record bypassAuditRecord)

// SetAuditLogger sets a custom audit logger.
// If not set, default standard log output is used.
func SetAuditLogger(fn func(ctx context.Context, record bypassAuditRecord)) {
	auditLogger = fn
}

// recordBypassAudit records bypass audit log.
func recordBypassAudit(ctx context.Context, info bypassInfo) {
	record := bypassAuditRecord{
		Timestamp:   info.Timestamp,
		Principal:   info.Principal.String(),
		Reason:      info.Reason,
		Operation:   "bypass",
		Description: fmt.Sprintf("Access bypass triggered: reason=%s, principal=%s", info.Reason, info.Principal.String()),
	}

	if auditLogger != nil {
		auditLogger(ctx, record)
	} else {
		log.Debug(ctx, "authz: access bypass",
			log.String("principal", record.Principal),
			log.String("reason", record.Reason),
			log.String("operation", record.Operation),
		)
	}
}
