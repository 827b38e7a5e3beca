package person

import (
	"github.com/taoerp/taoerp/internal/person/repository"
	"github.com/taoerp/taoerp/internal/person/service"
	"go.uber.org/fx"
)

var Module = fx.Module("person.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
