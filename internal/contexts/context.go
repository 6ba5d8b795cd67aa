package contexts

import (
	"context"

	"github.com/bk-med/kanban/internal/store"
)

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// WithUser stores the user entity in the context.
func WithUser(ctx context.Context, user *store.User) context.Context {
	container := getContainer(ctx)
	container.User = user

	return withContainer(ctx, container)
}

// GetUser retrieves the user entity from the context.
func GetUser(ctx context.Context) (*store.User, bool) {
	container := getContainer(ctx)
	return container.User, container.User != nil
}

// WithProjectID stores the project ID in the context.
func WithProjectID(ctx context.Context, projectID int) context.Context {
	container := getContainer(ctx)
	container.ProjectID = &projectID

	return withContainer(ctx, container)
}

// GetProjectID retrieves the project ID from the context.
func GetProjectID(ctx context.Context) (int, bool) {
	container := getContainer(ctx)
	if container.ProjectID != nil {
		return *container.ProjectID, true
	}

	return 0, false
}

// WithError appends an error to the context container.
func WithError(ctx context.Context, err error) context.Context {
	container := getContainer(ctx)
	container.mu.Lock()
	container.Errors = append(container.Errors, err)
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetErrors retrieves the errors collected in the context.
func GetErrors(ctx context.Context) []error {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	return container.Errors
}
