package observability

import (
	"github.com/smallbiznis/billbook/internal/observability/logger"
	"github.com/smallbiznis/billbook/internal/observability/metrics"
	"github.com/smallbiznis/billbook/internal/observability/tracing"
	"go.uber.org/fx"
)

// Module bundles logging, tracing, and metrics.
var Module = fx.Module("observability",
	logger.Module,
	tracing.Module,
	metrics.Module,
)
