package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taoerp/taoerp/internal/bulkimport"
	"github.com/taoerp/taoerp/internal/config"
	dashboarddomain "github.com/taoerp/taoerp/internal/dashboard/domain"
	persondomain "github.com/taoerp/taoerp/internal/person/domain"
	productdomain "github.com/taoerp/taoerp/internal/product/domain"
	purchasedomain "github.com/taoerp/taoerp/internal/purchase/domain"
	"github.com/taoerp/taoerp/internal/receipt"
	orderdomain "github.com/taoerp/taoerp/internal/serviceorder/domain"
	"github.com/taoerp/taoerp/internal/settings"
	"github.com/taoerp/taoerp/internal/watch"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	personSvc    persondomain.Service
	productSvc   productdomain.Service
	orderSvc     orderdomain.Service
	purchaseSvc  purchasedomain.Service
	settingsSvc  settings.Service
	dashboardSvc dashboarddomain.Service
	importSvc    bulkimport.Service
	receiptSvc   receipt.Service
	bus          *watch.Bus
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	PersonSvc    persondomain.Service
	ProductSvc   productdomain.Service
	OrderSvc     orderdomain.Service
	PurchaseSvc  purchasedomain.Service
	SettingsSvc  settings.Service
	DashboardSvc dashboarddomain.Service
	ImportSvc    bulkimport.Service
	ReceiptSvc   receipt.Service
	Bus          *watch.Bus
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		personSvc:    p.PersonSvc,
		productSvc:   p.ProductSvc,
		orderSvc:     p.OrderSvc,
		purchaseSvc:  p.PurchaseSvc,
		settingsSvc:  p.SettingsSvc,
		dashboardSvc: p.DashboardSvc,
		importSvc:    p.ImportSvc,
		receiptSvc:   p.ReceiptSvc,
		bus:          p.Bus,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- People --------
	api.GET("/people", s.ListPeople)
	api.POST("/people", s.CreatePerson)
	api.GET("/people/:id", s.GetPersonByID)
	api.PATCH("/people/:id", s.UpdatePerson)
	api.DELETE("/people/:id", s.DeletePerson)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/low-stock", s.ListLowStockProducts)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)

	// -------- Service orders --------
	api.GET("/service-orders", s.ListServiceOrders)
	api.POST("/service-orders", s.CreateServiceOrder)
	api.GET("/service-orders/:id", s.GetServiceOrderByID)
	api.PATCH("/service-orders/:id", s.UpdateServiceOrder)
	api.POST("/service-orders/:id/status", s.ChangeServiceOrderStatus)
	api.POST("/service-orders/:id/deliver", s.DeliverServiceOrder)
	api.POST("/service-orders/:id/cancel", s.CancelServiceOrder)
	api.GET("/service-orders/:id/receipt", s.RenderServiceOrderReceipt)

	// -------- Purchases --------
	api.GET("/purchases", s.ListPurchases)
	api.POST("/purchases", s.CreatePurchase)
	api.GET("/purchases/:id", s.GetPurchaseByID)
	api.PATCH("/purchases/:id", s.UpdatePurchase)
	api.POST("/purchases/:id/pay", s.MarkPurchasePaid)
	api.POST("/purchases/:id/receipt-file", s.AttachPurchaseReceipt)
	api.GET("/purchases/:id/receipt", s.RenderPurchaseReceipt)

	// -------- Settings --------
	api.GET("/settings", s.GetSettings)
	api.PUT("/settings", s.UpdateSettings)

	// -------- Dashboard --------
	api.GET("/dashboard/summary", s.GetDashboardSummary)
	api.GET("/dashboard/cashflow", s.GetDashboardCashflow)

	// -------- Bulk import --------
	api.POST("/import/:collection", s.BulkImport)

	// -------- Live updates --------
	api.GET("/watch/:collection", s.WatchCollection)
}
