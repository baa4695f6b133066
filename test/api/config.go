/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	defaultAPIVersion     = "/v1"
	defaultRequestTimeout = 10 * time.Second
	defaultWakeUpTimeout  = 45 * time.Second
	defaultTestTimeout    = 30 * time.Second
	defaultRetries        = 2
	defaultFixturePrefix  = "e2e"
)

type TestConfig struct {
	BaseURL           string
	APIVersion        string
	AdminUsername     string
	AdminEmail        string
	AdminPassword     string
	APIKey            string
	Environment       string
	RequestTimeout    time.Duration
	WakeUpTimeout     time.Duration
	TestTimeout       time.Duration
	Retries           int
	RequestsPerSecond float64
	FixturePrefix     string
	SkipIntegration   bool
	DebugLogging      bool
	LogRequests       bool
	LogResponses      bool
}

// LoadTestConfig loads configuration from environment variables and .env files.
// Returns an error if required configuration values are missing.
func LoadTestConfig() (*TestConfig, error) {
	config := ConfigFromEnvironment()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ConfigFromEnvironment reads the configuration without checking it, so that
// command line flags can fill the gaps before Validate is called.
func ConfigFromEnvironment() *TestConfig {
	loadEnvFile()

	return &TestConfig{
		BaseURL:           strings.TrimSuffix(os.Getenv("API_BASE_URL"), "/"),
		APIVersion:        normalizeVersion(getStringWithDefault("API_VERSION", defaultAPIVersion)),
		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		APIKey:            os.Getenv("API_KEY"),
		Environment:       getStringWithDefault("TEST_ENVIRONMENT", "production"),
		RequestTimeout:    getDurationWithDefault("REQUEST_TIMEOUT", defaultRequestTimeout),
		WakeUpTimeout:     getDurationWithDefault("WAKE_UP_TIMEOUT", defaultWakeUpTimeout),
		TestTimeout:       getDurationWithDefault("TEST_TIMEOUT", defaultTestTimeout),
		Retries:           getIntWithDefault("RETRIES", defaultRetries),
		RequestsPerSecond: getFloatWithDefault("REQUESTS_PER_SECOND", 0),
		FixturePrefix:     getStringWithDefault("FIXTURE_PREFIX", defaultFixturePrefix),
		SkipIntegration:   getBoolWithDefault("SKIP_INTEGRATION", false),
		DebugLogging:      getBoolWithDefault("DEBUG_LOGGING", false),
		LogRequests:       getBoolWithDefault("LOG_REQUESTS", false),
		LogResponses:      getBoolWithDefault("LOG_RESPONSES", false),
	}
}

// AddFlags binds the configuration to command line flags, the current values
// become the defaults.
func (c *TestConfig) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&c.BaseURL, "base-url", c.BaseURL, "API base URL, without the version prefix.")
	f.StringVar(&c.APIVersion, "api-version", c.APIVersion, "API version prefix.")
	f.StringVar(&c.AdminUsername, "admin-username", c.AdminUsername, "Admin account username.")
	f.StringVar(&c.AdminPassword, "admin-password", c.AdminPassword, "Admin account password.")
	f.StringVar(&c.APIKey, "api-key", c.APIKey, "Value of the X-API-KEY header.")
	f.DurationVar(&c.RequestTimeout, "request-timeout", c.RequestTimeout, "Timeout for a single request.")
	f.DurationVar(&c.WakeUpTimeout, "wake-up-timeout", c.WakeUpTimeout, "Timeout for the wake-up request.")
	f.IntVar(&c.Retries, "retries", c.Retries, "Healthcheck retries after the first attempt.")
	f.Float64Var(&c.RequestsPerSecond, "requests-per-second", c.RequestsPerSecond, "Request rate limit, 0 is unlimited.")
	f.StringVar(&c.FixturePrefix, "fixture-prefix", c.FixturePrefix, "Name prefix identifying test fixtures.")
	f.BoolVar(&c.DebugLogging, "debug", c.DebugLogging, "Enable debug logging.")
	f.BoolVar(&c.LogRequests, "log-requests", c.LogRequests, "Log every request.")
	f.BoolVar(&c.LogResponses, "log-responses", c.LogResponses, "Log every response body.")
}

// Validate checks that all required values are set and normalizes the rest.
func (c *TestConfig) Validate() error {
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	c.APIVersion = normalizeVersion(c.APIVersion)

	return validateRequiredFields(c)
}

// APIURL is the base URL with the version prefix applied.
func (c *TestConfig) APIURL() string {
	return c.BaseURL + c.APIVersion
}

// normalizeVersion makes sure the prefix is either empty or of the form "/v1".
func normalizeVersion(version string) string {
	version = strings.Trim(version, "/ ")
	if version == "" {
		return ""
	}

	return "/" + version
}

func getStringWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getDurationWithDefault gets a duration from environment variable or returns default.
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getBoolWithDefault gets a boolean from environment variable or returns default.
func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func getIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil || intValue < 0 {
		return defaultValue
	}

	return intValue
}

func getFloatWithDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil || floatValue < 0 {
		return defaultValue
	}

	return floatValue
}

func loadEnvFile() {
	envPaths := []string{
		"../../.env",    // From test/api directory
		"../../../.env", // From test/api/suites directory
		".env",
	}

	var envPath string
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				envPath = absPath
				break
			}
		}
	}

	if envPath == "" {
		// .env file not found - this is OK in CI/CD where env vars are set directly
		return
	}

	// Existing environment variables win over the file.
	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", envPath, err)
	}
}

// validateRequiredFields checks that all required configuration values are set.
func validateRequiredFields(config *TestConfig) error {
	var missing []string

	required := []struct {
		envVar string
		value  string
	}{
		{"API_BASE_URL", config.BaseURL},
		{"ADMIN_USERNAME", config.AdminUsername},
		{"ADMIN_PASSWORD", config.AdminPassword},
		{"API_KEY", config.APIKey},
	}

	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.envVar)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s. Please set these environment variables or add them to a .env file, or the gh secrets", ErrMissingConfig, strings.Join(missing, ", "))
	}

	return nil
}
