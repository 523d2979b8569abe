package app

import (
	"time"

	"github.com/tierbill/tierbill/internal/app/api/server"
	"github.com/tierbill/tierbill/internal/app/service/audit"
	"github.com/tierbill/tierbill/internal/app/service/billingcycle"
	"github.com/tierbill/tierbill/internal/app/service/cancellation"
	"github.com/tierbill/tierbill/internal/app/service/catalog"
	"github.com/tierbill/tierbill/internal/app/service/checkout"
	"github.com/tierbill/tierbill/internal/app/service/gateway"
	"github.com/tierbill/tierbill/internal/app/service/history"
	"github.com/tierbill/tierbill/internal/app/service/ledger"
	"github.com/tierbill/tierbill/internal/app/service/webhook"
	"github.com/tierbill/tierbill/internal/platform/db"
	"github.com/tierbill/tierbill/pkg/config"
	"github.com/tierbill/tierbill/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	audit.Module,
	catalog.Module,
	gateway.Module,
	ledger.Module,
	billingcycle.Module,
	cancellation.Module,
	checkout.Module,
	history.Module,
	webhook.Module,
)
