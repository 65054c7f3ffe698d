package config

import (
	"time"

	"github.com/ardanlabs/conf/v3"
)

type Config struct {
	conf.Version
	Web      Web
	Cors     Cors
	Backend  Backend
	Cart     Cart
	Session  Session
	Snapshot Snapshot
	Redis    Redis
	DB       DB
	Rate     Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:3000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

// Backend points at the storefront REST API this service consumes
// (settings, coupons, orders, cart tracking).
type Backend struct {
	URL            string        `conf:"default:http://localhost:8080"`
	RequestTimeout time.Duration `conf:"default:10s"`
}

type Cart struct {
	// MinimumOrderFallback is used when the settings endpoint is
	// unreachable or does not carry a minimum order value.
	MinimumOrderFallback string `conf:"default:200"`

	// SettingsRefresh re-reads the minimum order value on this
	// interval. Zero disables the refresh loop.
	SettingsRefresh time.Duration `conf:"default:0s"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

type Snapshot struct {
	// Driver selects the cart snapshot backend: memory, redis or postgres.
	Driver string `conf:"default:memory"`
}

type Redis struct {
	Addr     string        `conf:"default:localhost:6379"`
	Password string        `conf:"noprint"`
	DB       int           `conf:"default:0"`
	TTL      time.Duration `conf:"default:720h"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,noprint"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:cart"`
	DisableTLS bool   `conf:"default:true"`
}

type Rate struct {
	Burst    int           `conf:"default:5"`
	Every    time.Duration `conf:"default:1s"`
	ExpiryMn int           `conf:"default:60"`
}
