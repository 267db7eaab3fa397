package config

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SchedulePolicy holds the operational knobs that can change without a restart.
type SchedulePolicy struct {
	CutoffHours     int     `mapstructure:"cutoffHours"`
	LogLevel        string  `mapstructure:"logLevel"`
	RescheduleRate  float64 `mapstructure:"rescheduleRate"`
	RescheduleBurst int     `mapstructure:"rescheduleBurst"`
}

func DefaultSchedulePolicy() SchedulePolicy {
	return SchedulePolicy{
		CutoffHours:     24,
		LogLevel:        "info",
		RescheduleRate:  0.2,
		RescheduleBurst: 5,
	}
}

type PolicyHolder struct {
	current atomic.Value // holds SchedulePolicy

	mu        sync.Mutex
	listeners []func(SchedulePolicy)
}

// NewStaticPolicyHolder returns a holder that never reloads.
func NewStaticPolicyHolder(policy SchedulePolicy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(policy)
	return holder
}

// NewPolicyHolder reads schedule.yml from the configured paths and watches it for changes.
func NewPolicyHolder(cfg Config, log *zap.Logger) (*PolicyHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.policy")

	v := viper.New()
	v.SetConfigName("schedule")
	v.SetConfigType("yml")
	for _, path := range cfg.PolicyConfigPaths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("MEALPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSchedulePolicy()
	v.SetDefault("schedule.cutoffHours", defaults.CutoffHours)
	v.SetDefault("schedule.logLevel", defaults.LogLevel)
	v.SetDefault("schedule.rescheduleRate", defaults.RescheduleRate)
	v.SetDefault("schedule.rescheduleBurst", defaults.RescheduleBurst)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
	}

	var policy SchedulePolicy
	if err := v.UnmarshalKey("schedule", &policy); err != nil {
		return nil, err
	}
	if err := validateSchedulePolicy(policy); err != nil {
		return nil, err
	}

	holder := NewStaticPolicyHolder(policy)
	if !watch {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SchedulePolicy
		if err := v.UnmarshalKey("schedule", &updated); err != nil {
			log.Warn("schedule policy reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := validateSchedulePolicy(updated); err != nil {
			log.Warn("schedule policy ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.set(updated)
		log.Info("schedule policy reloaded", zap.String("file", e.Name), zap.Int("cutoff_hours", updated.CutoffHours))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *PolicyHolder) Get() SchedulePolicy {
	return h.current.Load().(SchedulePolicy)
}

// OnChange registers fn to run after every successful reload.
func (h *PolicyHolder) OnChange(fn func(SchedulePolicy)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *PolicyHolder) set(policy SchedulePolicy) {
	h.current.Store(policy)

	h.mu.Lock()
	listeners := append([]func(SchedulePolicy){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(policy)
	}
}

func validateSchedulePolicy(policy SchedulePolicy) error {
	if policy.CutoffHours <= 0 {
		return errors.New("schedule.cutoffHours must be positive")
	}
	if policy.RescheduleRate <= 0 || policy.RescheduleBurst <= 0 {
		return errors.New("schedule.rescheduleRate and schedule.rescheduleBurst must be positive")
	}
	return nil
}
