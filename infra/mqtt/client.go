// Package mqtt connects the dispatch core to the fleet: position and crew
// status reports flow in over the broker, assignment events flow out.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string          `json:"broker" yaml:"broker"`
	ClientID   string          `json:"client_id" yaml:"client_id"`
	Username   string          `json:"username" yaml:"username"`
	Password   string          `json:"password" yaml:"password"`
	UseTLS     bool            `json:"use_tls" yaml:"use_tls"`
	ClientCert string          `json:"client_cert" yaml:"client_cert"`
	ClientKey  string          `json:"client_key" yaml:"client_key"`
	CABundle   string          `json:"ca_bundle" yaml:"ca_bundle"`
	QoS        map[string]byte `json:"qos" yaml:"qos"`
	LWTTopic   string          `json:"lwt_topic" yaml:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload" yaml:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos" yaml:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain" yaml:"lwt_retain"`
	MaxRetries int             `json:"max_retries" yaml:"max_retries"`
	BackoffMS  int             `json:"backoff_ms" yaml:"backoff_ms"`

	// LocationTopic and StatusTopic are the inbound subscriptions; the
	// single-level wildcard is the vehicle ID.
	LocationTopic string `json:"location_topic" yaml:"location_topic"`
	StatusTopic   string `json:"status_topic" yaml:"status_topic"`
	// EventPrefix roots the outbound assignment event topics.
	EventPrefix string `json:"event_prefix" yaml:"event_prefix"`

	TLSConfig *tls.Config `json:"-" yaml:"-"`
}

// SetDefaults applies the standard topic layout.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatch-core"
	}
	if c.LocationTopic == "" {
		c.LocationTopic = "fleet/+/location"
	}
	if c.StatusTopic == "" {
		c.StatusTopic = "fleet/+/status"
	}
	if c.EventPrefix == "" {
		c.EventPrefix = "dispatch"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

// Validate rejects configurations the gateway cannot connect with.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

// NewClientOptions builds paho client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
