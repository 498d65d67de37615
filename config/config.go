package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv          string
	AppPort         string
	VaultDir        string
	DataDir         string
	AllowedOrigins  string
	AppKey          string
	SessionTTLHours int
	FlushDelayMs    int
}

// fileConfig is the optional YAML config file shape. Env vars win over it.
type fileConfig struct {
	Port     string `yaml:"port"`
	VaultDir string `yaml:"vault_dir"`
	DataDir  string `yaml:"data_dir"`
	AppKey   string `yaml:"app_key"`
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Invalid integer value for %s, defaulting to %d", key, defaultValue)
	}
	return defaultValue
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".promptvault"
	}
	return filepath.Join(home, ".promptvault")
}

func loadFile(path string) fileConfig {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		log.Printf("Ignoring malformed config file %s: %v", path, err)
		return fileConfig{}
	}
	return fc
}

func Load() Config {
	// .env is optional; missing file is not an error
	_ = godotenv.Load()

	dataDir := defaultDataDir()
	fc := loadFile(getEnv("CONFIG_FILE", filepath.Join(dataDir, "config.yaml")))

	if fc.DataDir != "" {
		dataDir = fc.DataDir
	}
	dataDir = getEnv("DATA_DIR", dataDir)

	vaultDir := filepath.Join(dataDir, "vault")
	if fc.VaultDir != "" {
		vaultDir = fc.VaultDir
	}

	port := "8180"
	if fc.Port != "" {
		port = fc.Port
	}

	appKey := fc.AppKey

	return Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		AppPort:         getEnv("APP_PORT", port),
		VaultDir:        getEnv("VAULT_DIR", vaultDir),
		DataDir:         dataDir,
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:1420"),
		AppKey:          getEnv("APP_KEY", appKey),
		SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 24),
		FlushDelayMs:    getEnvAsInt("FLUSH_DELAY_MS", 1000),
	}
}
