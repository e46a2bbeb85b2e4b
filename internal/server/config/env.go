package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, after loading
// an optional .env file from the working directory. Unset variables leave
// the current value untouched.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setEnv(&config.EndpointAddr, "ENDPOINT_ADDR")
	setEnv(&config.DatabaseDSN, "DATABASE_DSN")
	setEnv(&config.SecretKey, "SECRET_KEY")
	setEnv(&config.S3AccessKeyID, "S3_ACCESS_KEY_ID")
	setEnv(&config.S3SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setEnv(&config.S3Bucket, "S3_BUCKET")
	setEnv(&config.S3Region, "S3_REGION")
	setEnv(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setEnv(&config.S3ACL, "S3_ACL")
	setEnv(&config.PublicBaseURL, "PUBLIC_BASE_URL")
	setEnv(&config.PrivateBaseURL, "PRIVATE_BASE_URL")
	setEnv(&config.NATSURL, "NATS_URL")
	setEnv(&config.NATSSubject, "NATS_SUBJECT")

	if v := os.Getenv("TICKET_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.TicketTTL = d
		}
	}
}

func setEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
