package core

import (
	"time"

	"github.com/spf13/viper"
)

// ChainConfig is the unified configuration for the options the core
// recognises (spec.md §6): charge_free_mode, loadtest_mode,
// max_recursion_depth, abi_serialization_deadline, jmzk_link_expired_secs,
// plus the charge factor parameters of §4.6/§6. It mirrors the YAML layout
// loaded via viper, the same pattern the controller process uses for its
// own configuration.
type ChainConfig struct {
	ChargeFreeMode           bool          `mapstructure:"charge_free_mode" yaml:"charge_free_mode"`
	LoadtestMode             bool          `mapstructure:"loadtest_mode" yaml:"loadtest_mode"`
	MaxRecursionDepth        uint32        `mapstructure:"max_recursion_depth" yaml:"max_recursion_depth"`
	ABISerializationDeadline time.Duration `mapstructure:"abi_serialization_deadline" yaml:"abi_serialization_deadline"`
	LinkExpiredSecs          uint32        `mapstructure:"jmzk_link_expired_secs" yaml:"jmzk_link_expired_secs"`
	UnstakePendingDays       uint32        `mapstructure:"unstake_pending_days" yaml:"unstake_pending_days"`

	// ActiveProducerCount sizes the quorum prodvote requires before a key's
	// median vote is applied (ceil(2*ActiveProducerCount/3)). Zero disables
	// prodvote's config-mutation effect entirely, leaving it a no-op vote
	// ledger. updsched sets it for the rest of its own transaction.
	ActiveProducerCount uint32 `mapstructure:"active_producer_count" yaml:"active_producer_count"`

	Charge ChargeConfig `mapstructure:"charge" yaml:"charge"`

	HotCacheSize int `mapstructure:"hot_cache_size" yaml:"hot_cache_size"`
}

// DefaultChainConfig mirrors genesis defaults: recursion limit 32, no
// charge-free or loadtest shortcuts, a 10-minute ABI serialization
// deadline, jmzk link expiry of 3600 seconds.
var DefaultChainConfig = ChainConfig{
	ChargeFreeMode:           false,
	LoadtestMode:             false,
	MaxRecursionDepth:        DefaultRecursionLimit,
	ABISerializationDeadline: 10 * time.Minute,
	LinkExpiredSecs:          3600,
	UnstakePendingDays:       3,
	ActiveProducerCount:      21,
	Charge:                   DefaultChargeConfig,
	HotCacheSize:             4096,
}

// LoadChainConfig reads the core's configuration file (default layout plus
// an optional environment-specific override merged on top) using viper,
// the same config-loading idiom the rest of the node uses.
func LoadChainConfig(env string) (ChainConfig, error) {
	cfg := DefaultChainConfig
	v := viper.New()
	v.SetConfigName("chain")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, newChainError(ErrInvalidType, "load chain config failed", "error", err.Error())
		}
	} else if env != "" {
		v.SetConfigName(env)
		if err := v.MergeInConfig(); err != nil {
			return cfg, newChainError(ErrInvalidType, "merge environment chain config failed", "env", env, "error", err.Error())
		}
	}
	v.AutomaticEnv()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, newChainError(ErrInvalidType, "unmarshal chain config failed", "error", err.Error())
	}
	return cfg, nil
}
