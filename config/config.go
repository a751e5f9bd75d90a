package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "PAINTSTORE_CONFIG_FILE"

const (
	CartBackendMemory = "memory"
	CartBackendFile   = "file"
	CartBackendRedis  = "redis"
	CartBackendSQL    = "sql"
)

type catalog struct {
	BaseURL        string        `mapstructure:"base_url"`
	TTL            time.Duration `mapstructure:"ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type cart struct {
	Key            string        `mapstructure:"key"`
	StrictQuantity bool          `mapstructure:"strict_quantity"`
	Backend        string        `mapstructure:"backend"`
	FileDir        string        `mapstructure:"file_dir"`
	RedisURL       string        `mapstructure:"redis_url"`
	RedisTTL       time.Duration `mapstructure:"redis_ttl"`
	SQLDB          string        `mapstructure:"sql_db"`
	MaxCached      int           `mapstructure:"max_cached"`
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
}

type checkout struct {
	Domain       string `mapstructure:"domain"`
	Phone        string `mapstructure:"phone"`
	MaxURLLength int    `mapstructure:"max_url_length"`
	Greeting     string `mapstructure:"greeting"`
}

type search struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	CheckoutTopic      string    `mapstructure:"checkout_topic"`
	Partitions         int32     `mapstructure:"partitions"`
	ReplicationFactor  int16     `mapstructure:"replication_factor"`
	TLS                brokerTLS `mapstructure:"tls"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	Catalog        catalog    `mapstructure:"catalog"`
	Cart           cart       `mapstructure:"cart"`
	Checkout       checkout   `mapstructure:"checkout"`
	Search         search     `mapstructure:"search"`
	Broker         broker     `mapstructure:"broker"`
}

// BrokerEnabled reports whether checkout events are published.
func (c Config) BrokerEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0
}

// BrokerTLSEnabled reports whether all the TLS file paths are set.
func (c Config) BrokerTLSEnabled() bool {
	t := c.Broker.TLS
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("catalog.ttl", time.Minute)
	v.SetDefault("catalog.request_timeout", 10*time.Second)
	v.SetDefault("cart.key", "shopping_cart")
	v.SetDefault("cart.backend", CartBackendMemory)
	v.SetDefault("cart.file_dir", "carts")
	v.SetDefault("cart.max_cached", 10000)
	v.SetDefault("cart.idle_ttl", 30*time.Minute)
	v.SetDefault("checkout.domain", "wa.me")
	v.SetDefault("checkout.max_url_length", 4000)
	v.SetDefault("checkout.greeting", "Olá! Gostaria de fazer o seguinte pedido:")
	v.SetDefault("search.debounce", 300*time.Millisecond)
	v.SetDefault("broker.checkout_topic", "paintstore.checkout")
	v.SetDefault("broker.partitions", 3)
	v.SetDefault("broker.replication_factor", 1)
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads and validates the YAML config at path.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.UnmarshalExact(&cfg, hook); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("catalog.base_url is required"))
	}
	if c.Checkout.Phone == "" {
		errs = append(errs, errors.New("checkout.phone is required"))
	}
	if c.Cart.MaxCached <= 0 {
		errs = append(errs, errors.New("cart.max_cached must be positive"))
	}

	switch c.Cart.Backend {
	case CartBackendMemory, CartBackendFile:
	case CartBackendRedis:
		if c.Cart.RedisURL == "" {
			errs = append(errs, errors.New("cart.redis_url is required for redis backend"))
		}
	case CartBackendSQL:
		if c.Cart.SQLDB == "" {
			errs = append(errs, errors.New("cart.sql_db is required for sql backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cart.backend %q", c.Cart.Backend))
	}

	if c.BrokerEnabled() && len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls is required with seed_brokers"))
	}
	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q

	Catalog:
	BaseURL=%q
	TTL=%s
	RequestTimeout=%s

	Cart:
	Key=%q
	StrictQuantity=%t
	Backend=%q
	FileDir=%q
	RedisTTL=%s
	MaxCached=%d
	IdleTTL=%s

	Checkout:
	Domain=%q
	Phone=%q
	MaxURLLength=%d

	Search:
	Debounce=%s

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	CheckoutTopic=%q
	TLS=%t

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.Catalog.BaseURL,
		c.Catalog.TTL,
		c.Catalog.RequestTimeout,
		c.Cart.Key,
		c.Cart.StrictQuantity,
		c.Cart.Backend,
		c.Cart.FileDir,
		c.Cart.RedisTTL,
		c.Cart.MaxCached,
		c.Cart.IdleTTL,
		c.Checkout.Domain,
		c.Checkout.Phone,
		c.Checkout.MaxURLLength,
		c.Search.Debounce,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.CheckoutTopic,
		c.BrokerTLSEnabled(),
	)
}
