package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tierbill/tierbill/docs"
	"github.com/tierbill/tierbill/internal/app/api/handlers"
	"github.com/tierbill/tierbill/internal/app/service/billingcycle"
	"github.com/tierbill/tierbill/internal/app/service/cancellation"
	"github.com/tierbill/tierbill/internal/app/service/catalog"
	"github.com/tierbill/tierbill/internal/app/service/checkout"
	"github.com/tierbill/tierbill/internal/app/service/gateway"
	"github.com/tierbill/tierbill/internal/app/service/history"
	"github.com/tierbill/tierbill/internal/app/service/ledger"
	"github.com/tierbill/tierbill/internal/app/service/webhook"
	cfgpkg "github.com/tierbill/tierbill/pkg/config"

	mw "github.com/tierbill/tierbill/internal/app/api/middleware"

	metrics "github.com/tierbill/tierbill/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger and access log are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log          *zap.SugaredLogger
	Cfg          *cfgpkg.Config
	Catalog      *catalog.Service
	Checkout     *checkout.Service
	History      *history.Service
	Cancellation *cancellation.Service
	Ledger       *ledger.Service
	Cycle        *billingcycle.Service
	Webhook      *webhook.Service
	Gateway      gateway.PaymentGateway
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	// Prometheus metrics
	if d.Cfg != nil && d.Cfg.MetricsAddr != "" {
		p := metrics.New(d.Log)
		p.SetListenAddress(d.Cfg.MetricsAddr)
		p.Use(r)

		d.Log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// User-facing billing APIs
	billing := r.Group("/api/v1/billing")
	billing.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterPackageRoutes(billing, d.Catalog)
	handlers.RegisterCheckoutRoutes(billing, d.Checkout)
	handlers.RegisterHistoryRoutes(billing, d.History)
	handlers.RegisterSubscriptionRoutes(billing, d.Cancellation)
	handlers.RegisterProofRoutes(billing, d.Ledger, d.Cfg)

	// Admin APIs
	admin := r.Group("/api/v1/admin")
	admin.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterAdminRoutes(admin, d.Ledger, d.Cycle)

	// Gateway webhooks
	hooks := r.Group("/api/v2/payment/webhook")
	hooks.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterPaymentWebhookRoutes(hooks, d.Gateway, d.Webhook, d.Log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
