package biz

import (
	"go.uber.org/fx"
)

var Module = fx.Module("biz",
	fx.Provide(NewRecorder),
	fx.Provide(NewAuthService),
	fx.Provide(NewUserService),
	fx.Provide(NewProjectService),
	fx.Provide(NewTaskService),
	fx.Provide(NewCommentService),
	fx.Provide(NewActivityLogService),
)
