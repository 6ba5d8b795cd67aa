package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/store"
)

type AbstractService struct {
	store  *store.Store
	engine *authz.Engine
}

// RunInTransaction runs fn inside a store transaction. When the context
// already carries one, fn joins it and the outer owner commits. Panics roll
// back and re-raise.
func (a *AbstractService) RunInTransaction(ctx context.Context, fn func(context.Context) error) (err error) {
	if tx := store.TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := a.store.BeginTx(ctx)
	if err != nil {
		return err
	}

	committed := false

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()

			panic(r)
		}

		if !committed {
			_ = tx.Rollback()
		}
	}()

	txCtx := store.NewTxContext(ctx, tx)

	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	committed = true

	return nil
}

// require enforces the action on the resource and translates denials into
// the API error taxonomy: a resource the caller cannot even read is reported
// as missing, a readable one as forbidden.
func (a *AbstractService) require(ctx context.Context, action authz.Action, resource authz.Resource) error {
	err := a.engine.Require(ctx, action, resource)
	if err == nil {
		return nil
	}

	if !errors.Is(err, authz.ErrDenied) {
		return err
	}

	if action == authz.ActionRead {
		return notFound(resource.ResourceKind())
	}

	readErr := a.engine.Require(ctx, authz.ActionRead, resource)

	switch {
	case readErr == nil:
		return fmt.Errorf("%s on %s: %w", action, resource.ResourceKind(), ErrPermissionDenied)
	case errors.Is(readErr, authz.ErrDenied):
		return notFound(resource.ResourceKind())
	default:
		return readErr
	}
}

// requireRead is the read-path shorthand: any denial reads as not found.
func (a *AbstractService) requireRead(ctx context.Context, resource authz.Resource) error {
	return a.require(ctx, authz.ActionRead, resource)
}

// visibleScope converts the caller's visibility into a store scope so list
// queries return exactly the rows a per-item read decision would allow.
func (a *AbstractService) visibleScope(ctx context.Context) (store.Scope, error) {
	visibility, err := a.engine.VisibleProjects(ctx)
	if err != nil {
		return store.Scope{}, fmt.Errorf("failed to resolve visible projects: %w", err)
	}

	if visibility.All {
		return store.ScopeAll(), nil
	}

	return store.ScopeProjects(visibility.ProjectIDs...), nil
}

// requireSuperauthority gates the admin surface.
func requireSuperauthority(ctx context.Context) error {
	principal, ok := authz.GetPrincipal(ctx)
	if !ok || !principal.Superauthority() {
		return fmt.Errorf("superauthority required: %w", ErrPermissionDenied)
	}

	return nil
}
