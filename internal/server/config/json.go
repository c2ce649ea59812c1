package config

import (
	"encoding/json"
	"os"

	"unidrive/internal/flagx"
	"unidrive/internal/timex"
)

// JsonProviderCredential mirrors ProviderCredential for JSON unmarshalling.
type JsonProviderCredential struct {
	Identity   string `json:"identity"`
	Credential string `json:"credential"`
	Bucket     string `json:"bucket"`
	Location   string `json:"location"`
}

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP  string                 `json:"endpoint_addr_http"`
	DatabaseDSN       string                 `json:"database_dsn"`
	SecretKey         string                 `json:"secret_key"`
	KeepAliveInterval timex.Duration         `json:"keep_alive_interval"`
	DefaultCost       string                 `json:"default_cost"`
	DefaultLocation   string                 `json:"default_location"`
	Amazon            JsonProviderCredential `json:"amazon"`
	Azure             JsonProviderCredential `json:"azure"`
	Google            JsonProviderCredential `json:"google"`
	Backblaze         JsonProviderCredential `json:"backblaze"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c/-config flags; when
// neither is set, no JSON file is loaded. Unset fields keep their current
// (default) values. An unreadable or invalid file panics: a config file
// that was asked for but cannot be used is a startup error.
func parseJson(config *Config) {

	// try flags
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

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.KeepAliveInterval.Duration != 0 {
		config.KeepAliveInterval = c.KeepAliveInterval.Duration
	}
	if c.DefaultCost != "" {
		config.DefaultCost = c.DefaultCost
	}
	if c.DefaultLocation != "" {
		config.DefaultLocation = c.DefaultLocation
	}

	copyProvider(&config.Amazon, c.Amazon)
	copyProvider(&config.Azure, c.Azure)
	copyProvider(&config.Google, c.Google)
	copyProvider(&config.Backblaze, c.Backblaze)
}

func copyProvider(dst *ProviderCredential, src JsonProviderCredential) {
	if src.Identity == "" {
		return
	}
	dst.Identity = src.Identity
	dst.Credential = src.Credential
	dst.Bucket = src.Bucket
	dst.Location = src.Location
}
