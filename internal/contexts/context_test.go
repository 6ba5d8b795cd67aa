package contexts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bk-med/kanban/internal/store"
)

func TestUserContext(t *testing.T) {
	ctx := context.Background()

	_, ok := GetUser(ctx)
	assert.False(t, ok)

	user := &store.User{ID: 7, Username: "alice"}
	ctx = WithUser(ctx, user)

	got, ok := GetUser(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)
}

func TestProjectIDContext(t *testing.T) {
	ctx := context.Background()

	_, ok := GetProjectID(ctx)
	assert.False(t, ok)

	ctx = WithProjectID(ctx, 42)

	id, ok := GetProjectID(ctx)
	assert.True(t, ok)
	assert.Equal(t, 42, id)
}

func TestTraceIDContext(t *testing.T) {
	ctx := WithTraceID(context.Background(), "kb-test")

	id, ok := GetTraceID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "kb-test", id)
}

func TestContainerSharedAcrossValues(t *testing.T) {
	// Values stored after the container exists are visible through the
	// original context reference as well.
	ctx := WithTraceID(context.Background(), "kb-test")
	WithOperationName(ctx, "ListTasks")

	name, ok := GetOperationName(ctx)
	assert.True(t, ok)
	assert.Equal(t, "ListTasks", name)
}

func TestErrorsContext(t *testing.T) {
	ctx := WithError(context.Background(), assert.AnError)
	ctx = WithError(ctx, assert.AnError)

	assert.Len(t, GetErrors(ctx), 2)
}
