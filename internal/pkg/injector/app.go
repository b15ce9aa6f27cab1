package injector

import (
	"github.com/lk2023060901/meo-insight/internal/conf"
	"github.com/lk2023060901/meo-insight/internal/meo/biz"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/lk2023060901/meo-insight/internal/server"
)

// App encapsulates all application dependencies
type App struct {
	Config     *conf.Config
	Logger     *logger.Logger
	HTTPServer *server.HTTPServer
	Sessions   *biz.SessionStore
	cleanup    func()
}

// Cleanup releases all resources
func (a *App) Cleanup() {
	if a.cleanup != nil {
		a.cleanup()
	}
}
