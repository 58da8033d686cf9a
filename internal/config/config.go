// Package config предоставляет структуры и функции для загрузки конфигурации панели.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string   `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string   `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string   `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	Redis                   Redis    `yaml:"redis_connection"`
	RabbitMQ                RabbitMQ `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	GRPC                    GRPC `yaml:"grpc"`
	JWTToken                `yaml:"jwttoken"`
	Provisioning            Provisioning `yaml:"provisioning"`
	Payment                 Payment      `yaml:"payment"`
	Scheduler               Scheduler    `yaml:"scheduler"`
	RateLimit               RateLimit    `yaml:"rate_limit"`
	Cache                   Cache        `yaml:"cache"`
}

// HTTPServer настройки HTTP-сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// GRPC настройки сервиса проверки токенов. Пустой адрес отключает сервис.
type GRPC struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS"`
}

// Redis настройки подключения к redis.
type Redis struct {
	Address     string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	Timeout     time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ настройки подключения к брокеру.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
	Workers    int           `yaml:"workers" env-default:"4"`
}

// JWTToken настройки jwt-токена.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Provisioning настройки обращения к удалённым серверам.
// RenewExtensionDays — фиксированное окно удалённого продления, не зависящее от тарифа.
type Provisioning struct {
	Timeout            time.Duration `yaml:"timeout" env:"PROVISIONING_TIMEOUT" env-default:"15s"`
	RenewExtensionDays int           `yaml:"renew_extension_days" env-default:"30"`
	DNSCacheTTL        time.Duration `yaml:"dns_cache_ttl" env-default:"5m"`
}

// Payment настройки приёма платёжных событий.
type Payment struct {
	WebhookSecret string `yaml:"webhook_secret" env:"PAYMENT_WEBHOOK_SECRET"`
}

// Scheduler настройки планировщика уведомлений.
type Scheduler struct {
	Spec string `yaml:"spec" env-default:"0 9 * * *"`
}

// RateLimit настройки ограничения запросов к API.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// Cache настройки кеша справочников.
type Cache struct {
	ServerTTL time.Duration `yaml:"server_ttl" env-default:"1h"`
}

// Load читает конфиг из файла path, предварительно подгружая .env, если он есть.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", path)
	}
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	return MustLoadPath(configPath)
}

// MustLoadPath загружает конфиг по явному пути и завершает процесс при ошибке.
func MustLoadPath(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"Redis: addr=%s user=%s password=%s db=%d\n"+
			"RabbitMQ: url=%s retries=%d delay=%s workers=%d\n"+
			"HTTPServer: addr=%s timeout=%s idle=%s\n"+
			"GRPC: addr=%s\n"+
			"JWTToken: secret=%s ttl=%s\n"+
			"Provisioning: timeout=%s renew_extension_days=%d dns_cache_ttl=%s\n"+
			"Scheduler: spec=%q\n"+
			"RateLimit: rps=%.2f burst=%d\n",
		c.Env,
		mask(c.StorageConnectionString),
		c.MigrationsPath,
		c.Redis.Address, c.Redis.User, mask(c.Redis.Password), c.Redis.DB,
		mask(c.RabbitMQ.URL), c.RabbitMQ.MaxRetries, c.RabbitMQ.RetryDelay, c.RabbitMQ.Workers,
		c.AddressHTTP, c.TimeoutHTTP, c.IdleTimeout,
		c.GRPC.Address,
		mask(c.JWTSecretKey), c.TokenTTL,
		c.Provisioning.Timeout, c.Provisioning.RenewExtensionDays, c.Provisioning.DNSCacheTTL,
		c.Scheduler.Spec,
		c.RateLimit.RPS, c.RateLimit.Burst,
	)
}
