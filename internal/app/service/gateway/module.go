package gateway

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tierbill/tierbill/pkg/config"
)

// Module provides the Paddle-backed gateway behind the PaymentGateway
// interface.
var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, log *zap.SugaredLogger) (PaymentGateway, error) {
		return NewPaddleGateway(cfg.Paddle, log)
	}),
)
