package environments

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Broker   BrokerConfig
	Blast    BlastConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GatewayConfig points at the WhatsApp dispatch gateway. The gateway owns its
// own sessions (QR pairing, reconnect); we only call its send API.
type GatewayConfig struct {
	BaseURL string
	AuthKey string
	Timeout time.Duration
}

// BrokerConfig is the AMQP broker the realtime notifier publishes to.
type BrokerConfig struct {
	URL      string
	Exchange string
}

type BlastConfig struct {
	PollInterval time.Duration
}

type AuthConfig struct {
	NurtureAPIKey string
	BlastAPIKey   string
}

func Load() *Config {
	// Missing .env is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "leadpulse"),
			Password: GetEnv("DB_PASSWORD", "leadpulse123"),
			DBName:   GetEnv("DB_NAME", "leadpulse_outreach"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Gateway: GatewayConfig{
			BaseURL: GetEnv("WA_GATEWAY_URL", "http://localhost:3000"),
			AuthKey: GetEnv("WA_GATEWAY_AUTH_KEY", ""),
			Timeout: time.Duration(GetEnvAsInt("WA_GATEWAY_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Broker: BrokerConfig{
			URL:      GetEnv("AMQP_URL", ""),
			Exchange: GetEnv("AMQP_EXCHANGE", "leadpulse.events"),
		},
		Blast: BlastConfig{
			PollInterval: time.Duration(GetEnvAsInt("BLAST_POLL_INTERVAL_SECONDS", 2)) * time.Second,
		},
		Auth: AuthConfig{
			NurtureAPIKey: GetEnv("NURTURE_API_KEY", ""),
			BlastAPIKey:   GetEnv("BLAST_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
