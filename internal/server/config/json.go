package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/A1iAshoor/s3-relay/internal/flagx"
	"github.com/A1iAshoor/s3-relay/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr      string         `json:"endpoint_addr"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	S3AccessKeyID     string         `json:"s3_access_key_id"`
	S3SecretAccessKey string         `json:"s3_secret_access_key"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	S3ACL             string         `json:"s3_acl"`
	PublicBaseURL     string         `json:"public_base_url"`
	PrivateBaseURL    string         `json:"private_base_url"`
	TicketTTL         timex.Duration `json:"ticket_ttl"`
	NATSURL           string         `json:"nats_url"`
	NATSSubject       string         `json:"nats_subject"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path comes from the -c or -config command-line flags. If it
// is not set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.S3AccessKeyID = c.S3AccessKeyID
	config.S3SecretAccessKey = c.S3SecretAccessKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.S3ACL = c.S3ACL
	config.PublicBaseURL = c.PublicBaseURL
	config.PrivateBaseURL = c.PrivateBaseURL
	config.TicketTTL = time.Duration(c.TicketTTL.Duration)
	config.NATSURL = c.NATSURL
	config.NATSSubject = c.NATSSubject
}
