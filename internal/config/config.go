package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
)

type Config struct {
	Redis       RedisConfig
	Chain       ChainConfig
	Coordinator CoordinatorConfig
	Verifier    VerifierConfig
	Settler     SettlerConfig
	Callback    CallbackConfig
	Events      EventsConfig
	Server      ServerConfig
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type ChainConfig struct {
	RPCURL           string        `mapstructure:"rpc_url"`
	MockChain        bool          `mapstructure:"mock_chain"`
	MockBlockTime    time.Duration `mapstructure:"mock_block_time"`
	PriceFeedAddress string        `mapstructure:"price_feed_address"`
	// StaticPrice, when set, replaces the on-chain feed (wei per unit of gas currency).
	StaticPrice  string        `mapstructure:"static_price"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type CoordinatorConfig struct {
	Address                     string `mapstructure:"address"`
	AdminAddress                string `mapstructure:"admin_address"`
	MinimumRequestConfirmations uint16 `mapstructure:"minimum_request_confirmations"`
	MaxConsumers                uint16 `mapstructure:"max_consumers"`
	StalenessSeconds            uint32 `mapstructure:"staleness_seconds"`
	GasAfterPaymentCalculation  uint32 `mapstructure:"gas_after_payment_calculation"`
	FallbackWeiPerUnitLink      string `mapstructure:"fallback_wei_per_unit_link"`
}

type VerifierConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Mock    bool          `mapstructure:"mock"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SettlerConfig struct {
	QueueKey        string        `mapstructure:"queue_key"`
	RetryKey        string        `mapstructure:"retry_key"`
	DLQKey          string        `mapstructure:"dlq_key"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	DefaultGasLimit uint64        `mapstructure:"default_gas_limit"`
}

type CallbackConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type EventsConfig struct {
	StreamKey string `mapstructure:"stream_key"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("chain.poll_interval", 2*time.Second)
	v.SetDefault("chain.mock_block_time", 2*time.Second)
	v.SetDefault("coordinator.minimum_request_confirmations", 3)
	v.SetDefault("coordinator.max_consumers", 100)
	v.SetDefault("coordinator.staleness_seconds", 86400)
	v.SetDefault("coordinator.gas_after_payment_calculation", 33285)
	v.SetDefault("coordinator.fallback_wei_per_unit_link", "5000000000000000")
	v.SetDefault("verifier.timeout", 10*time.Second)
	v.SetDefault("settler.queue_key", "vrf:proofs:queue")
	v.SetDefault("settler.retry_key", "vrf:proofs:retry")
	v.SetDefault("settler.dlq_key", "vrf:proofs:dlq")
	v.SetDefault("settler.max_attempts", 20)
	v.SetDefault("settler.retry_interval", 15*time.Second)
	v.SetDefault("settler.default_gas_limit", 2_500_000)
	v.SetDefault("callback.timeout", 5*time.Second)
	v.SetDefault("events.stream_key", "vrf:events")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"redis.addr":                                "REDIS_ADDR",
		"redis.password":                            "REDIS_PASSWORD",
		"chain.rpc_url":                             "RPC_URL",
		"chain.mock_chain":                          "MOCK_CHAIN",
		"chain.mock_block_time":                     "MOCK_BLOCK_TIME",
		"chain.price_feed_address":                  "PRICE_FEED_ADDRESS",
		"chain.static_price":                        "STATIC_PRICE",
		"chain.poll_interval":                       "POLL_INTERVAL",
		"coordinator.address":                       "COORDINATOR_ADDRESS",
		"coordinator.admin_address":                 "ADMIN_ADDRESS",
		"coordinator.minimum_request_confirmations": "MIN_REQUEST_CONFIRMATIONS",
		"coordinator.max_consumers":                 "MAX_CONSUMERS",
		"coordinator.staleness_seconds":             "STALENESS_SECONDS",
		"coordinator.gas_after_payment_calculation": "GAS_AFTER_PAYMENT_CALCULATION",
		"coordinator.fallback_wei_per_unit_link":    "FALLBACK_WEI_PER_UNIT_LINK",
		"verifier.url":                              "VERIFIER_URL",
		"verifier.api_key":                          "VERIFIER_API_KEY",
		"verifier.mock":                             "MOCK_VRF",
		"verifier.timeout":                          "VERIFIER_TIMEOUT",
		"settler.max_attempts":                      "SETTLER_MAX_ATTEMPTS",
		"settler.retry_interval":                    "SETTLER_RETRY_INTERVAL",
		"settler.default_gas_limit":                 "DEFAULT_GAS_LIMIT",
		"callback.timeout":                          "CALLBACK_TIMEOUT",
		"events.stream_key":                         "EVENTS_KEY",
		"server.port":                               "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	type req struct {
		val  string
		name string
		skip bool
	}
	for _, r := range []req{
		{c.Redis.Addr, "REDIS_ADDR", false},
		{c.Coordinator.Address, "COORDINATOR_ADDRESS", false},
		{c.Coordinator.AdminAddress, "ADMIN_ADDRESS", false},
		{c.Chain.RPCURL, "RPC_URL", c.Chain.MockChain},
		{c.Chain.PriceFeedAddress, "PRICE_FEED_ADDRESS", c.Chain.StaticPrice != "" || c.Chain.MockChain},
		{c.Verifier.URL, "VERIFIER_URL", c.Verifier.Mock},
	} {
		if r.val == "" && !r.skip {
			return fmt.Errorf("required config missing: %s", r.name)
		}
	}
	for _, a := range []struct{ val, name string }{
		{c.Coordinator.Address, "COORDINATOR_ADDRESS"},
		{c.Coordinator.AdminAddress, "ADMIN_ADDRESS"},
		{c.Chain.PriceFeedAddress, "PRICE_FEED_ADDRESS"},
	} {
		if a.val != "" && !common.IsHexAddress(a.val) {
			return fmt.Errorf("invalid address in %s: %q", a.name, a.val)
		}
	}
	if c.Chain.MockChain && c.Chain.StaticPrice == "" {
		return fmt.Errorf("MOCK_CHAIN requires STATIC_PRICE")
	}
	if c.Chain.StaticPrice != "" {
		if _, err := parsePositive(c.Chain.StaticPrice, "STATIC_PRICE"); err != nil {
			return err
		}
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy is the initial coordinator configuration.
func (c *Config) Policy() (coordinator.Config, error) {
	fallback, err := parsePositive(c.Coordinator.FallbackWeiPerUnitLink, "FALLBACK_WEI_PER_UNIT_LINK")
	if err != nil {
		return coordinator.Config{}, err
	}
	if c.Coordinator.MinimumRequestConfirmations > coordinator.MaxRequestConfirmations {
		return coordinator.Config{}, fmt.Errorf("MIN_REQUEST_CONFIRMATIONS %d exceeds %d",
			c.Coordinator.MinimumRequestConfirmations, coordinator.MaxRequestConfirmations)
	}
	return coordinator.Config{
		MinimumRequestConfirmations: c.Coordinator.MinimumRequestConfirmations,
		MaxConsumers:                c.Coordinator.MaxConsumers,
		StalenessSeconds:            c.Coordinator.StalenessSeconds,
		GasAfterPaymentCalculation:  c.Coordinator.GasAfterPaymentCalculation,
		FallbackWeiPerUnitLink:      fallback,
	}, nil
}

// StaticPriceWei returns the configured static price, or nil when the feed is on-chain.
func (c *Config) StaticPriceWei() *big.Int {
	if c.Chain.StaticPrice == "" {
		return nil
	}
	v, _ := parsePositive(c.Chain.StaticPrice, "STATIC_PRICE")
	return v
}

func parsePositive(s, name string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("invalid %s: %q", name, s)
	}
	return v, nil
}
