package config

import (
	"encoding/json"
	"os"
	"time"

	"ipfsmarket/internal/flagx"
	"ipfsmarket/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "1h" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	AssetTTLMonths        int            `json:"asset_ttl_months"`
	PinataEndpoint        string         `json:"pinata_endpoint"`
	PinataJWT             string         `json:"pinata_jwt"`
	IPFSGatewayURL        string         `json:"ipfs_gateway_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
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
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.AssetTTLMonths = c.AssetTTLMonths
	config.PinataEndpoint = c.PinataEndpoint
	config.PinataJWT = c.PinataJWT
	config.IPFSGatewayURL = c.IPFSGatewayURL
}
