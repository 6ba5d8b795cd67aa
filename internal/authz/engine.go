package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bk-med/kanban/internal/log"
)

// ErrDenied is wrapped by every denial returned from Require.
var ErrDenied = errors.New("access denied")

// DeniedError reports which action on which kind was denied, so the edges
// can map read denials to not-found and write denials to forbidden.
type DeniedError struct {
	Action Action
	Kind   Kind
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("authz: %s on %s denied", e.Action, e.Kind)
}

func (e *DeniedError) Unwrap() error {
	return ErrDenied
}

// Engine evaluates actions against resources. The policy is fixed:
//
//  1. system, test and admin principals are allowed everything
//  2. reads require owner or member relationship to the resource's project
//  3. project writes require ownership
//  4. task writes additionally admit the current assignee
//  5. comment writes additionally admit the author
//  6. roster management requires ownership
//  7. activity log writes are always denied
//  8. everything else is denied
type Engine struct {
	resolver  *Resolver
	decisions metric.Int64Counter
}

// NewEngine creates an engine evaluating against the given resolver.
func NewEngine(resolver *Resolver) *Engine {
	decisions, err := otel.Meter("kanban/authz").Int64Counter(
		"authz_decisions_total",
		metric.WithDescription("Access decisions by action, resource kind and outcome"),
	)
	if err != nil {
		log.Warn(context.Background(), "failed to register decision counter", log.Cause(err))
	}

	return &Engine{resolver: resolver, decisions: decisions}
}

// Resolver exposes the relationship resolver for invalidation hooks.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Decide evaluates the action against the resource for the context
// principal. The error return is reserved for resolution failures, a
// policy denial is a Deny decision with a nil error.
func (e *Engine) Decide(ctx context.Context, action Action, resource Resource) (Decision, error) {
	p, _ := GetPrincipal(ctx)

	decision, reason, err := e.decide(ctx, p, action, resource)
	if err != nil {
		return Deny, err
	}

	outcome := lo.Ternary(decision.Allowed(), "allow", "deny")

	log.Debug(ctx, "authz: access decision",
		log.String("principal", p.String()),
		log.String("action", action.String()),
		log.String("resource", resource.ResourceKind().String()),
		log.Int("project_id", resource.ResourceProject()),
		log.String("decision", outcome),
		log.String("reason", reason),
	)

	if e.decisions != nil {
		e.decisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action.String()),
			attribute.String("kind", resource.ResourceKind().String()),
			attribute.String("decision", outcome),
		))
	}

	return decision, nil
}

// Require is Decide with denials turned into a DeniedError.
func (e *Engine) Require(ctx context.Context, action Action, resource Resource) error {
	decision, err := e.Decide(ctx, action, resource)
	if err != nil {
		return err
	}

	if !decision.Allowed() {
		return &DeniedError{Action: action, Kind: resource.ResourceKind()}
	}

	return nil
}

func (e *Engine) decide(ctx context.Context, p Principal, action Action, resource Resource) (Decision, string, error) {
	if p.Superauthority() {
		return Allow, "superauthority", nil
	}

	if !p.IsUser() || p.UserID == nil {
		return Deny, "no user principal", nil
	}

	// The audit trail is append-only for everyone below superauthority.
	if action == ActionWrite && resource.ResourceKind() == KindActivityLog {
		return Deny, "activity log is read-only", nil
	}

	rel, err := e.resolver.Relationship(ctx, *p.UserID, resource.ResourceProject())
	if err != nil {
		return Deny, "", err
	}

	switch action {
	case ActionRead:
		if rel.InProject() {
			return Allow, "project " + rel.String(), nil
		}
	case ActionWrite:
		return decideWrite(*p.UserID, resource, rel)
	case ActionManage:
		if rel == RelationshipOwner {
			return Allow, "project owner", nil
		}
	}

	return Deny, "no qualifying relationship", nil
}

func decideWrite(userID int, resource Resource, rel Relationship) (Decision, string, error) {
	switch resource.ResourceKind() {
	case KindProject:
		if rel == RelationshipOwner {
			return Allow, "project owner", nil
		}
	case KindTask:
		if rel.InProject() {
			return Allow, "project " + rel.String(), nil
		}

		// The assignee keeps write access until unassigned, even after
		// leaving the roster.
		if a, ok := resource.(Assignable); ok {
			if assignee, assigned := a.AssigneeUserID(); assigned && assignee == userID {
				return Allow, "task assignee", nil
			}
		}
	case KindComment:
		if a, ok := resource.(Authored); ok && a.AuthorUserID() == userID {
			return Allow, "comment author", nil
		}

		if rel.InProject() {
			return Allow, "project " + rel.String(), nil
		}
	}

	return Deny, "no qualifying relationship", nil
}
