package authz

import (
	"context"
)

// Visibility is the set of projects a principal may read. Listing queries
// push it down as a project filter instead of fetching and re-checking rows.
type Visibility struct {
	// All marks superauthority principals, the project filter is skipped.
	All        bool
	ProjectIDs []int
}

// VisibleProjects computes the visibility of the context principal.
// An unauthenticated or unknown principal sees nothing.
func (e *Engine) VisibleProjects(ctx context.Context) (Visibility, error) {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return Visibility{}, nil
	}

	if p.Superauthority() {
		return Visibility{All: true}, nil
	}

	if !p.IsUser() || p.UserID == nil {
		return Visibility{}, nil
	}

	ids, err := e.resolver.VisibleProjectIDs(ctx, *p.UserID)
	if err != nil {
		return Visibility{}, err
	}

	return Visibility{ProjectIDs: ids}, nil
}

// FilterReadable returns the subset of resources the context principal may
// read. Listing endpoints push visibility into the query instead, this is
// the reference path the push-down must stay equivalent to.
func FilterReadable[R Resource](ctx context.Context, e *Engine, resources []R) ([]R, error) {
	out := make([]R, 0, len(resources))

	for _, resource := range resources {
		decision, err := e.Decide(ctx, ActionRead, resource)
		if err != nil {
			return nil, err
		}

		if decision.Allowed() {
			out = append(out, resource)
		}
	}

	return out, nil
}
