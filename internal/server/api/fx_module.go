package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(NewAuthHandlers),
	fx.Provide(NewProjectHandlers),
	fx.Provide(NewTaskHandlers),
	fx.Provide(NewCommentHandlers),
	fx.Provide(NewActivityHandlers),
	fx.Provide(NewAdminHandlers),
	fx.Provide(NewSystemHandlers),
)
