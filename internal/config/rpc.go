package config

import (
	"errors"
	"os"
	"strings"
)

type RPCConfig struct {
	RPCUrl    string
	RPCApiKey string
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.RPCApiKey = os.Getenv("RPC_KEY")
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: RPC_URL is required")
	}
	return nil
}

// Endpoint returns the RPC URL with the API key appended when one is set.
func (r *RPCConfig) Endpoint() string {
	if r.RPCApiKey == "" {
		return r.RPCUrl
	}
	sep := "?"
	if strings.Contains(r.RPCUrl, "?") {
		sep = "&"
	}
	return r.RPCUrl + sep + "api-key=" + r.RPCApiKey
}
