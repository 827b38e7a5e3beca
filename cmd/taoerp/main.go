package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/internal/bulkimport"
	"github.com/taoerp/taoerp/internal/clock"
	"github.com/taoerp/taoerp/internal/config"
	"github.com/taoerp/taoerp/internal/dashboard"
	"github.com/taoerp/taoerp/internal/logger"
	"github.com/taoerp/taoerp/internal/migration"
	"github.com/taoerp/taoerp/internal/numlock"
	"github.com/taoerp/taoerp/internal/person"
	"github.com/taoerp/taoerp/internal/product"
	"github.com/taoerp/taoerp/internal/purchase"
	"github.com/taoerp/taoerp/internal/receipt"
	"github.com/taoerp/taoerp/internal/server"
	"github.com/taoerp/taoerp/internal/serviceorder"
	"github.com/taoerp/taoerp/internal/settings"
	"github.com/taoerp/taoerp/internal/watch"
	"github.com/taoerp/taoerp/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		watch.Module,
		numlock.Module,
		migration.Module,

		// Functional domains
		person.Module,
		product.Module,
		serviceorder.Module,
		purchase.Module,
		settings.Module,
		dashboard.Module,
		bulkimport.Module,
		receipt.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
