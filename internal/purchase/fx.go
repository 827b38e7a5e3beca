package purchase

import (
	"github.com/taoerp/taoerp/internal/purchase/repository"
	"github.com/taoerp/taoerp/internal/purchase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchase.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
