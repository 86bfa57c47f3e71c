package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/chatkaro/server/internal/logger"
)

const (
	defaultListenAddr       = "localhost:8000"
	defaultLoggingLevel     = logger.LevelInfo
	defaultEnvironment      = logger.EnvProduction
	defaultJWTAlgorithm     = "HS256"
	defaultAccessTTLMinutes = 15
	defaultRefreshTTLDays   = 30
	defaultRefreshBytes     = 32
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address the service listens on
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key used to sign access tokens
	SecretKey string

	// JWT signing algorithm
	JWTAlgorithm string

	// Optional issuer claim for access tokens
	JWTIssuer string

	// Access token lifetime in minutes
	AccessTTLMinutes int

	// Refresh token lifetime in days
	RefreshTTLDays int

	// Raw refresh secret length in bytes
	RefreshBytes int

	// Environment (dev, prod)
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:         defaultLoggingLevel,
		ListenAddr:       defaultListenAddr,
		JWTAlgorithm:     defaultJWTAlgorithm,
		AccessTTLMinutes: defaultAccessTTLMinutes,
		RefreshTTLDays:   defaultRefreshTTLDays,
		RefreshBytes:     defaultRefreshBytes,
		Environment:      defaultEnvironment,
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if parsed, err := strconv.Atoi(value); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":         setString(&c.ListenAddr),
		"DATABASE_URI":        setString(&c.DatabaseDSN),
		"SECRET_KEY":          setString(&c.SecretKey),
		"JWT_ALGORITHM":       setString(&c.JWTAlgorithm),
		"JWT_ISSUER":          setString(&c.JWTIssuer),
		"ACCESS_TOKEN_TTL":    setInt(&c.AccessTTLMinutes),
		"REFRESH_TOKEN_TTL":   setInt(&c.RefreshTTLDays),
		"REFRESH_TOKEN_BYTES": setInt(&c.RefreshBytes),
		"LOG_LEVEL":           setString(&c.LogLevel),
		"ENVIRONMENT":         setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("chatkaro", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key to sign access tokens")
	fs.StringVar(&c.JWTAlgorithm, "jwt-algorithm", c.JWTAlgorithm, "JWT signing algorithm")
	fs.StringVar(&c.JWTIssuer, "jwt-issuer", c.JWTIssuer, "Issuer claim for access tokens")
	fs.IntVar(&c.AccessTTLMinutes, "access-ttl", c.AccessTTLMinutes, "Access token lifetime in minutes")
	fs.IntVar(&c.RefreshTTLDays, "refresh-ttl", c.RefreshTTLDays, "Refresh token lifetime in days")
	fs.IntVar(&c.RefreshBytes, "refresh-bytes", c.RefreshBytes, "Refresh secret length in bytes")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
