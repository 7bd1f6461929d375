package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config aggregates the solver service's runtime configuration.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Solver   SolverConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig carries the tunable defaults named in spec §4.5/§4.6.
type SolverConfig struct {
	DefaultGenerations    int
	DefaultPopulationSize int
	DefaultCrossoverRate  float64
	DefaultMutationRate   float64
	DefaultElitismCount   int
	MinCoverage           float64
	DefaultTimeout        time.Duration
	Workers               int
}

// CacheConfig tunes the C6 cache's eviction policy.
type CacheConfig struct {
	MaxAge   time.Duration
	MaxBytes int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		DefaultGenerations:    v.GetInt("SOLVER_DEFAULT_GENERATIONS"),
		DefaultPopulationSize: v.GetInt("SOLVER_DEFAULT_POPULATION_SIZE"),
		DefaultCrossoverRate:  v.GetFloat64("SOLVER_DEFAULT_CROSSOVER_RATE"),
		DefaultMutationRate:   v.GetFloat64("SOLVER_DEFAULT_MUTATION_RATE"),
		DefaultElitismCount:   v.GetInt("SOLVER_DEFAULT_ELITISM_COUNT"),
		MinCoverage:           v.GetFloat64("SOLVER_MIN_COVERAGE"),
		DefaultTimeout:        parseDuration(v.GetString("SOLVER_DEFAULT_TIMEOUT"), 30*time.Second),
		Workers:               v.GetInt("SOLVER_WORKERS"),
	}

	cfg.Cache = CacheConfig{
		MaxAge:   parseDuration(v.GetString("CACHE_MAX_AGE"), 24*time.Hour),
		MaxBytes: v.GetInt64("CACHE_MAX_BYTES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable_solver")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_DEFAULT_GENERATIONS", 30)
	v.SetDefault("SOLVER_DEFAULT_POPULATION_SIZE", 20)
	v.SetDefault("SOLVER_DEFAULT_CROSSOVER_RATE", 0.7)
	v.SetDefault("SOLVER_DEFAULT_MUTATION_RATE", 0.15)
	v.SetDefault("SOLVER_DEFAULT_ELITISM_COUNT", 2)
	v.SetDefault("SOLVER_MIN_COVERAGE", 0.70)
	v.SetDefault("SOLVER_DEFAULT_TIMEOUT", "30s")
	v.SetDefault("SOLVER_WORKERS", 4)

	v.SetDefault("CACHE_MAX_AGE", "24h")
	v.SetDefault("CACHE_MAX_BYTES", 500*1024*1024)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
