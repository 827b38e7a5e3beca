package product

import (
	"github.com/taoerp/taoerp/internal/product/repository"
	"github.com/taoerp/taoerp/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
