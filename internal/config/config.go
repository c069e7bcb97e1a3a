package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	Pagination  PaginationConfig
	BcryptCost  int
	CORSOrigins []string
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	SecretKey   string
	ExpiryHours int
}

type LogConfig struct {
	Level string
}

type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// IsProduction reports whether internal error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

var bindings = map[string]string{
	"server.port":                "PORT",
	"app.env":                    "APP_ENV",
	"log.level":                  "LOG_LEVEL",
	"database.host":              "DATABASE_HOST",
	"database.port":              "DATABASE_PORT",
	"database.user":              "DATABASE_USER",
	"database.password":          "DATABASE_PASSWORD",
	"database.name":              "DATABASE_NAME",
	"database.ssl_mode":          "DATABASE_SSL_MODE",
	"database.max_open_conns":    "DATABASE_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DATABASE_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DATABASE_CONN_MAX_LIFETIME",
	"redis.host":                 "REDIS_HOST",
	"redis.port":                 "REDIS_PORT",
	"redis.password":             "REDIS_PASSWORD",
	"redis.db":                   "REDIS_DB",
	"jwt.secret_key":             "JWT_SECRET_KEY",
	"jwt.expiry_hours":           "JWT_EXPIRY_HOURS",
	"bcrypt.cost":                "BCRYPT_COST",
	"pagination.default_limit":   "PAGINATION_DEFAULT_LIMIT",
	"pagination.max_limit":       "PAGINATION_MAX_LIMIT",
	"cors.allowed_origins":       "CORS_ALLOWED_ORIGINS",
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("log.level", "info")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "fintrack")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("bcrypt.cost", 10)
	viper.SetDefault("pagination.default_limit", 20)
	viper.SetDefault("pagination.max_limit", 100)
	viper.SetDefault("cors.allowed_origins", "https://*,http://*")
}

// Load reads an optional .env file, then environment variables, then defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded, using environment: %v", err)
	}

	viper.AutomaticEnv()
	for key, env := range bindings {
		viper.BindEnv(key, env)
	}
	setDefaults()

	return FromViper()
}

// FromViper builds a Config from whatever viper currently holds. Tests call
// this after viper.Set to avoid touching the environment.
func FromViper() *Config {
	setDefaults()

	return &Config{
		Server: ServerConfig{
			Port:         viper.GetString("server.port"),
			Env:          viper.GetString("app.env"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("database.host"),
			Port:            viper.GetString("database.port"),
			User:            viper.GetString("database.user"),
			Password:        viper.GetString("database.password"),
			Name:            viper.GetString("database.name"),
			SSLMode:         viper.GetString("database.ssl_mode"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetString("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey:   viper.GetString("jwt.secret_key"),
			ExpiryHours: viper.GetInt("jwt.expiry_hours"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
		},
		Pagination: PaginationConfig{
			DefaultLimit: viper.GetInt("pagination.default_limit"),
			MaxLimit:     viper.GetInt("pagination.max_limit"),
		},
		BcryptCost:  viper.GetInt("bcrypt.cost"),
		CORSOrigins: splitList(viper.GetString("cors.allowed_origins")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
