package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort       string
	GRPCPort       string
	EndpointPrefix string
	JWTSecret      string
	GinMode        string

	DB DBConfig

	// Empty KafkaBrokers disables event publishing.
	KafkaBrokers []string

	// Empty ConsulAddress disables service registration.
	ConsulAddress string
	ServiceName   string
	ServiceHost   string
}

type DBConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value connection
// string built from the individual settings.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	} else if err != nil {
		slog.Info("no .env file found, using process environment")
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	cfg := Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCPort:       getEnv("GRPC_PORT", "9090"),
		EndpointPrefix: os.Getenv("SERVICE_ENDPOINT_PREFIX"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		GinMode:        os.Getenv("GIN_MODE"),
		DB: DBConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		ConsulAddress: os.Getenv("CONSUL_ADDRESS"),
		ServiceName:   getEnv("SERVICE_NAME", "storefront"),
		ServiceHost:   getEnv("SERVICE_HOST", "localhost"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.EndpointPrefix == "" {
		return Config{}, errors.New("SERVICE_ENDPOINT_PREFIX is not set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
