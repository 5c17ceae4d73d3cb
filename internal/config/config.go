package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/textnorm"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type OrdersConfig struct {
	DefaultStatus  string
	AmountDebounce time.Duration
	// SingleSelect lists the compound fields picked from a single-select
	// control: "falla" and/or "reparacion".
	SingleSelect []string
	ShopName     string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	Backend     BackendConfig
	Auth        AuthConfig
	Orders      OrdersConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("BACKEND_BASE_URL")), "/"),
			Timeout: v.GetDuration("BACKEND_TIMEOUT"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Orders: OrdersConfig{
			DefaultStatus:  textnorm.Status(v.GetString("DEFAULT_STATUS")),
			AmountDebounce: v.GetDuration("AMOUNT_DEBOUNCE"),
			SingleSelect:   parseList(strings.ToLower(v.GetString("SINGLE_SELECT_FIELDS"))),
			ShopName:       strings.TrimSpace(v.GetString("SHOP_NAME")),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7089
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://127.0.0.1:5000"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Orders.DefaultStatus == "" {
		cfg.Orders.DefaultStatus = model.StatusRepairing
	}
	if cfg.Orders.AmountDebounce == 0 {
		cfg.Orders.AmountDebounce = 120 * time.Millisecond
	}
	if cfg.Orders.ShopName == "" {
		cfg.Orders.ShopName = "Servicio Técnico"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be an absolute URL, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout < 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if cfg.Orders.AmountDebounce < 0 {
		return fmt.Errorf("AMOUNT_DEBOUNCE must be positive")
	}
	if !model.IsInProgress(cfg.Orders.DefaultStatus) {
		return fmt.Errorf("DEFAULT_STATUS must be an in-progress status, got %q", cfg.Orders.DefaultStatus)
	}
	for _, field := range cfg.Orders.SingleSelect {
		if field != "falla" && field != "reparacion" {
			return fmt.Errorf("SINGLE_SELECT_FIELDS: unknown field %q", field)
		}
	}
	return nil
}

func (c OrdersConfig) IsSingleSelect(field string) bool {
	for _, f := range c.SingleSelect {
		if f == field {
			return true
		}
	}
	return false
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
