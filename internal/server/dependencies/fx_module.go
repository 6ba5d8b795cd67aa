package dependencies

import (
	"context"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/notify"
	"github.com/bk-med/kanban/internal/pkg/xcache"
	"github.com/bk-med/kanban/internal/server/biz"
	"github.com/bk-med/kanban/internal/server/db"
	"github.com/bk-med/kanban/internal/store"
)

var Module = fx.Module("dependencies",
	fx.Provide(log.New),
	fx.Provide(db.NewStore),
	fx.Provide(NewExecutors),
	fx.Provide(NewRelationshipResolver),
	fx.Provide(authz.NewEngine),
	fx.Provide(notify.NewDispatcher),
	fx.Provide(func(dispatcher *notify.Dispatcher) biz.Notifier {
		return dispatcher
	}),
	fx.Invoke(func(lc fx.Lifecycle, executor executors.ScheduledExecutor) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return executor.Shutdown(ctx)
			},
		})
	}),
)

// NewRelationshipResolver backs the authorization engine with the project
// store and the configured relationship cache.
func NewRelationshipResolver(st *store.Store, cacheConfig xcache.Config) *authz.Resolver {
	cache := xcache.NewFromConfig[authz.Relationship](cacheConfig)

	return authz.NewResolver(st.Projects, cache, 0)
}
