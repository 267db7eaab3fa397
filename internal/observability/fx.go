package observability

import (
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/observability/logger"
	"github.com/smallbiznis/mealplan/internal/observability/metrics"
	"github.com/smallbiznis/mealplan/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.DefaultRegisterer,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(ensureTracingProvider),
	fx.Invoke(bindLogLevel),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

// bindLogLevel lets the schedule policy file adjust verbosity without a restart.
func bindLogLevel(policies *config.PolicyHolder, level zap.AtomicLevel, log *zap.Logger) {
	apply := func(p config.SchedulePolicy) {
		if p.LogLevel == "" {
			return
		}
		var next zapcore.Level
		if err := next.UnmarshalText([]byte(p.LogLevel)); err != nil {
			log.Warn("ignoring invalid log level from policy", zap.String("level", p.LogLevel))
			return
		}
		if level.Level() != next {
			level.SetLevel(next)
			log.Info("log level changed", zap.String("level", next.String()))
		}
	}
	policies.OnChange(apply)
}

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		File:                cfg.LogFile,
		Debug:               cfg.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}
