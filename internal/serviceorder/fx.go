package serviceorder

import (
	"github.com/taoerp/taoerp/internal/serviceorder/repository"
	"github.com/taoerp/taoerp/internal/serviceorder/service"
	"go.uber.org/fx"
)

var Module = fx.Module("serviceorder.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
