package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PolicyConfig holds operational knobs that may be tuned at runtime
// without restarting the process.
type PolicyConfig struct {
	Quota QuotaPolicy `mapstructure:"quota"`
	Retry RetryPolicy `mapstructure:"retry"`
}

type QuotaPolicy struct {
	FreeMonthlyLimit int `mapstructure:"freeMonthlyLimit"`
}

type RetryPolicy struct {
	Policy      string        `mapstructure:"policy"` // fixed | exponential
	BaseDelay   time.Duration `mapstructure:"baseDelay"`
	MaxDelay    time.Duration `mapstructure:"maxDelay"`
	MaxAttempts int           `mapstructure:"maxAttempts"`
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Quota: QuotaPolicy{FreeMonthlyLimit: 10},
		Retry: RetryPolicy{
			Policy:      "exponential",
			BaseDelay:   5 * time.Second,
			MaxDelay:    5 * time.Minute,
			MaxAttempts: 3,
		},
	}
}

// policyDefaults starts from the built-in defaults and layers the
// env-backed knobs on top, so FREE_MONTHLY_QUOTA and the WORKER_*
// variables take effect when no policy file overrides them.
func (c Config) policyDefaults() PolicyConfig {
	d := DefaultPolicyConfig()
	if c.FreeMonthlyQuota > 0 {
		d.Quota.FreeMonthlyLimit = c.FreeMonthlyQuota
	}
	if c.WorkerMaxAttempts > 0 {
		d.Retry.MaxAttempts = c.WorkerMaxAttempts
	}
	if c.WorkerBackoff != "" {
		d.Retry.Policy = c.WorkerBackoff
	}
	if c.WorkerBackoffBase > 0 {
		d.Retry.BaseDelay = c.WorkerBackoffBase
	}
	return d
}

// PolicyHolder exposes the current PolicyConfig and swaps it atomically
// when the backing file changes.
type PolicyHolder struct {
	current atomic.Value // holds PolicyConfig
}

func NewPolicyHolder(cfg Config, log *zap.Logger) (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/scriptly/config") // Volume-mounted config
	v.AddConfigPath("/etc/scriptly")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("SCRIPTLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	log = log.Named("policy-config")

	defaults := cfg.policyDefaults()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("policy.quota", defaults.Quota)
		v.SetDefault("policy.retry", defaults.Retry)
	}

	current := defaults
	if err := v.UnmarshalKey("policy", &current); err != nil {
		return nil, err
	}
	if err := validatePolicyConfig(current); err != nil {
		return nil, err
	}

	holder := &PolicyHolder{}
	holder.current.Store(current)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := defaults
		if err := v.UnmarshalKey("policy", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validatePolicyConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *PolicyHolder) Get() PolicyConfig {
	return h.current.Load().(PolicyConfig)
}

// NewStaticPolicyHolder returns a holder pinned to the given config.
// Used by tests and by callers that do not want file watching.
func NewStaticPolicyHolder(cfg PolicyConfig) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(cfg)
	return holder
}

func validatePolicyConfig(cfg PolicyConfig) error {
	if cfg.Quota.FreeMonthlyLimit <= 0 {
		return errors.New("policy.quota.freeMonthlyLimit must be positive")
	}
	if cfg.Retry.MaxAttempts <= 0 {
		return errors.New("policy.retry.maxAttempts must be positive")
	}
	switch cfg.Retry.Policy {
	case "fixed", "exponential":
	default:
		return errors.New("policy.retry.policy must be fixed or exponential")
	}
	return nil
}
