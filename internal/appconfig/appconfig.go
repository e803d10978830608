// Package appconfig centralizes environment configuration, grounded on
// rakaoran-GuessTheObject's shared/configs/env.go (a package-level struct
// literal populated from os.Getenv) and backend/main.go's fail-fast
// os.LookupEnv + log.Fatal pattern for required credentials.
package appconfig

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config is every environment-derived setting the server needs (spec.md
// §6.5). Required fields missing at startup are a fatal error; optional
// fields fall back to the documented defaults.
type Config struct {
	Port          string
	ClientOrigins []string
	GinMode       string
	RedisURL      string
	PostgresURL   string
	JWTKey        string
}

const defaultPort = "8080"

// Load reads Config from the environment, calling log.Fatal on any missing
// required credential the same way backend/main.go does for
// ALLOWED_ORIGINS/POSTGRES_URL/JWT_KEY.
func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	clientOrigin, exists := os.LookupEnv("CLIENT_ORIGIN")
	if !exists || clientOrigin == "" {
		log.Fatal("appconfig: missing CLIENT_ORIGIN")
	}
	origins := append(strings.Split(clientOrigin, ","), "http://localhost:3000", "http://localhost:5173")

	redisURL, exists := os.LookupEnv("REDIS_URL")
	if !exists {
		log.Fatal("appconfig: missing REDIS_URL")
	}

	postgresURL, exists := os.LookupEnv("POSTGRES_URL")
	if !exists {
		log.Fatal("appconfig: missing POSTGRES_URL")
	}

	jwtKey, exists := os.LookupEnv("JWT_KEY")
	if !exists {
		log.Fatal("appconfig: missing JWT_KEY")
	}

	return Config{
		Port:          port,
		ClientOrigins: origins,
		GinMode:       os.Getenv("GIN_MODE"),
		RedisURL:      redisURL,
		PostgresURL:   postgresURL,
		JWTKey:        jwtKey,
	}
}

// IsRelease mirrors gin.ReleaseMode membership, used to pick the JSON vs
// console log writer in applog.Configure.
func (c Config) IsRelease() bool {
	return c.GinMode == "release"
}

// ParsePositiveInt parses s as a positive integer, returning fallback when s
// is empty, not a number, or not greater than zero.
func ParsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
