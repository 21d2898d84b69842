package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk JSON layout of [StructuredConfig].
type StructuredJSONConfig struct {
	App struct {
		SessionToken string `json:"session_token"`
		TokenSignKey string `json:"token_sign_key"`
		Version      string `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		Local struct {
			DSN string `json:"dsn"`
		} `json:"local,omitempty"`

		Remote struct {
			DSN string `json:"dsn"`
		} `json:"remote,omitempty"`

		Objects struct {
			Endpoint             string   `json:"endpoint"`
			Region               string   `json:"region"`
			AccessKey            string   `json:"access_key"`
			SecretKey            string   `json:"secret_key"`
			PublicBaseURL        string   `json:"public_base_url"`
			MediaBucket          string   `json:"media_bucket"`
			RestrictedBucket     string   `json:"restricted_bucket"`
			RestrictedAssetTypes []string `json:"restricted_asset_types"`
		} `json:"objects,omitempty"`
	} `json:"storage,omitempty"`

	Sync struct {
		Interval       Duration `json:"interval"`
		Concurrency    int      `json:"concurrency"`
		Shards         int      `json:"shards"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"sync,omitempty"`

	Server struct {
		HTTPAddress string `json:"http_address"`
		GRPCAddress string `json:"grpc_address"`
	} `json:"server,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	objects := jsonCfg.Storage.Objects
	cfg := &StructuredConfig{
		App: App{
			SessionToken: jsonCfg.App.SessionToken,
			TokenSignKey: jsonCfg.App.TokenSignKey,
			Version:      jsonCfg.App.Version,
		},
		Storage: Storage{
			Local:  LocalDB{DSN: jsonCfg.Storage.Local.DSN},
			Remote: RemoteDB{DSN: jsonCfg.Storage.Remote.DSN},
			Objects: Objects{
				Endpoint:             objects.Endpoint,
				Region:               objects.Region,
				AccessKey:            objects.AccessKey,
				SecretKey:            objects.SecretKey,
				PublicBaseURL:        objects.PublicBaseURL,
				MediaBucket:          objects.MediaBucket,
				RestrictedBucket:     objects.RestrictedBucket,
				RestrictedAssetTypes: objects.RestrictedAssetTypes,
			},
		},
		Sync: Sync{
			Interval:       time.Duration(jsonCfg.Sync.Interval),
			Concurrency:    jsonCfg.Sync.Concurrency,
			Shards:         jsonCfg.Sync.Shards,
			RequestTimeout: time.Duration(jsonCfg.Sync.RequestTimeout),
		},
		Server: Server{
			HTTPAddress: jsonCfg.Server.HTTPAddress,
			GRPCAddress: jsonCfg.Server.GRPCAddress,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
