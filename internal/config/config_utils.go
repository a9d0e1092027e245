package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// applyFallbacks applies environment variable fallbacks and derived defaults
func (c *Config) applyFallbacks() {
	c.applyStateDirDefault()
	c.applyObservabilityDefaults()
}

// applyStateDirDefault resolves the local state directory when unset.
func (c *Config) applyStateDirDefault() {
	if c.State.Dir != "" {
		return
	}

	if dir, err := os.UserConfigDir(); err == nil {
		c.State.Dir = filepath.Join(dir, "rezzy")
		return
	}
	c.State.Dir = ".rezzy"
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}

	// Set console output based on log level if not explicitly configured
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	// Try to get hostname, fallback to default
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// StateFilePath returns the resolved path of the local state document.
func (c *Config) StateFilePath() string {
	return filepath.Join(c.State.Dir, c.State.File)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	// Log config file source
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	// Log environment variables that are set
	envVars := []string{
		"REZZY_API_BASEURL",
		"REZZY_API_TOKEN",
		"REZZY_IDENTITY_USERID",
		"REZZY_APP_LOGLEVEL",
		"REZZY_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			// Mask sensitive values
			if strings.Contains(strings.ToLower(envVar), "token") || strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	// Log key configuration values (with sensitive data masked)
	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] API Base URL: %s", c.API.BaseURL)
	if c.API.Token != "" {
		log.Println("[CONFIG] API Token: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] API Token: ***NOT SET***")
	}
	log.Printf("[CONFIG] Short Timeout: %s", c.API.ShortTimeout)
	log.Printf("[CONFIG] Long Timeout: %s", c.API.LongTimeout)
	log.Printf("[CONFIG] Bootstrap Hard Timeout: %s", c.Bootstrap.HardTimeout)
	log.Printf("[CONFIG] Free Scans Per Month: %d", c.Quota.FreeScansPerMonth)
	log.Printf("[CONFIG] State Dir: %s", c.State.Dir)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] =====================================")
}
