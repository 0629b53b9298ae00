package config

import (
	"encoding/json"
	"flag"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	defaultServerAddress     = "localhost:8080"
	defaultLoggerLevel       = "info"
	defaultReputationBaseURL = "https://www.virustotal.com/api/v3"
	defaultClientIPHeader    = "CF-Connecting-IP"
	defaultPprofAddress      = "localhost:6060"
	defaultMigrationsPath    = "file://internal/scripts/migrations"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	ServerAddress     string `json:"server_address" env:"SERVER_ADDRESS" envDefault:"localhost:8080"`
	LoggerLevel       string `json:"log_level" env:"LOG_LEVEL" envDefault:"info"`
	DatabaseDSN       string `json:"database_dsn" env:"DATABASE_DSN"`
	APIKey            string `json:"-" env:"VIRUSTOTAL_API_KEY"`
	ReputationBaseURL string `json:"reputation_base_url" env:"REPUTATION_BASE_URL" envDefault:"https://www.virustotal.com/api/v3"`
	ClientIPHeader    string `json:"client_ip_header" env:"CLIENT_IP_HEADER" envDefault:"CF-Connecting-IP"`
	TrustedSubnet     string `json:"trusted_subnet" env:"TRUSTED_SUBNET"`
	StrictDetails     bool   `json:"strict_details" env:"STRICT_DETAILS"`
	EnablePprof       bool   `json:"enable_pprof" env:"ENABLE_PPROF"`
	PprofAddress      string `json:"pprof_address" env:"PPROF_ADDRESS" envDefault:"localhost:6060"`
	MigrationsPath    string `json:"migrations_path" env:"MIGRATIONS_PATH" envDefault:"file://internal/scripts/migrations"`
	ConfigFile        string `json:"-" env:"CONFIG"`
}

// LoadConfig загружает конфигурацию из .env, переменных окружения, флагов командной строки и JSON конфиг файла
func LoadConfig() (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, err
	}

	if err := ParseFlags(config); err != nil {
		return nil, err
	}

	if config.ConfigFile != "" {
		fileConfig, err := loadConfigFromFile(config.ConfigFile)
		if err != nil {
			return nil, err
		}
		mergeConfigs(config, fileConfig)
	}

	return config, nil
}

// ParseFlags добавляет флаги командной строки для параметров конфигурации
// и переопределяет значения, если они указаны в аргументах запуска.
// Неизвестный или некорректный флаг возвращается ошибкой
func ParseFlags(config *Config) error {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	RegisterFlags(fs, config)
	return fs.Parse(appArgs(os.Args[1:]))
}

// appArgs отбрасывает флаги тестового бинаря вида -test.run=...
func appArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "-test.") || strings.HasPrefix(arg, "--test.") {
			continue
		}
		out = append(out, arg)
	}
	return out
}

// RegisterFlags регистрирует флаги конфигурации в переданном наборе
func RegisterFlags(fs *flag.FlagSet, config *Config) {
	fs.StringVar(&config.ServerAddress, "a", config.ServerAddress, "address and port to run server")
	fs.StringVar(&config.LoggerLevel, "l", config.LoggerLevel, "log level")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.ReputationBaseURL, "r", config.ReputationBaseURL, "reputation API base URL")
	fs.StringVar(&config.ClientIPHeader, "h", config.ClientIPHeader, "header carrying the client IP")
	fs.StringVar(&config.TrustedSubnet, "t", config.TrustedSubnet, "trusted proxy subnet in CIDR format")
	fs.BoolVar(&config.StrictDetails, "s", config.StrictDetails, "report suspicious engines as well as malicious ones")
	fs.BoolVar(&config.EnablePprof, "p", config.EnablePprof, "enable pprof server")
	fs.StringVar(&config.ConfigFile, "c", config.ConfigFile, "path to JSON config file")
}

func loadConfigFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) isDefault(field string) bool {
	switch field {
	case "ServerAddress":
		return c.ServerAddress == defaultServerAddress
	case "LoggerLevel":
		return c.LoggerLevel == defaultLoggerLevel
	case "DatabaseDSN":
		return c.DatabaseDSN == ""
	case "ReputationBaseURL":
		return c.ReputationBaseURL == defaultReputationBaseURL
	case "ClientIPHeader":
		return c.ClientIPHeader == defaultClientIPHeader
	case "TrustedSubnet":
		return c.TrustedSubnet == ""
	case "StrictDetails":
		return !c.StrictDetails
	case "EnablePprof":
		return !c.EnablePprof
	case "PprofAddress":
		return c.PprofAddress == defaultPprofAddress
	case "MigrationsPath":
		return c.MigrationsPath == defaultMigrationsPath
	default:
		return false
	}
}

func mergeConfigs(dst, src *Config) {
	if src.ServerAddress != "" && dst.isDefault("ServerAddress") {
		dst.ServerAddress = src.ServerAddress
	}
	if src.LoggerLevel != "" && dst.isDefault("LoggerLevel") {
		dst.LoggerLevel = src.LoggerLevel
	}
	if src.DatabaseDSN != "" && dst.isDefault("DatabaseDSN") {
		dst.DatabaseDSN = src.DatabaseDSN
	}
	if src.ReputationBaseURL != "" && dst.isDefault("ReputationBaseURL") {
		dst.ReputationBaseURL = src.ReputationBaseURL
	}
	if src.ClientIPHeader != "" && dst.isDefault("ClientIPHeader") {
		dst.ClientIPHeader = src.ClientIPHeader
	}
	if src.TrustedSubnet != "" && dst.isDefault("TrustedSubnet") {
		dst.TrustedSubnet = src.TrustedSubnet
	}
	if src.StrictDetails && dst.isDefault("StrictDetails") {
		dst.StrictDetails = src.StrictDetails
	}
	if src.EnablePprof && dst.isDefault("EnablePprof") {
		dst.EnablePprof = src.EnablePprof
	}
	if src.PprofAddress != "" && dst.isDefault("PprofAddress") {
		dst.PprofAddress = src.PprofAddress
	}
	if src.MigrationsPath != "" && dst.isDefault("MigrationsPath") {
		dst.MigrationsPath = src.MigrationsPath
	}
}
