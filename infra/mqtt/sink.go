package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/heatctl/heatctl/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	BaseTopic  string `json:"base_topic"`
	QoS        byte   `json:"qos"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	LWTTopic   string `json:"lwt_topic"`
	LWTPayload string `json:"lwt_payload"`
	LWTQoS     byte   `json:"lwt_qos"`
	LWTRetain  bool   `json:"lwt_retain"`

	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BaseTopic == "" {
		c.BaseTopic = "heatctl"
	}
	if c.ClientID == "" {
		c.ClientID = "heatctl-" + uuid.NewString()
	}
}

// Enabled reports whether a broker is configured at all.
func (c Config) Enabled() bool { return c.Broker != "" }

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Sink publishes planner state as retained MQTT messages below the base
// topic. It tracks every topic it has published so that DeleteSubtree can
// clear stale retained values.
type Sink struct {
	cli  pahoClient
	base string
	qos  byte
	log  logger.Logger

	mu        sync.Mutex
	published map[string]struct{}
}

// NewSink connects to the MQTT broker.
func NewSink(cfg Config) (*Sink, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_sink")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Sink{
		cli:       c,
		base:      strings.TrimSuffix(cfg.BaseTopic, "/"),
		qos:       cfg.QoS,
		log:       log,
		published: make(map[string]struct{}),
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
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

// Publish writes value as a retained message under base_topic/topic.
func (s *Sink) Publish(topic string, value any) error {
	payload, err := encodePayload(value)
	if err != nil {
		return err
	}
	full := s.base + "/" + strings.TrimPrefix(topic, "/")
	token := s.cli.Publish(full, s.qos, true, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	s.mu.Lock()
	s.published[full] = struct{}{}
	s.mu.Unlock()
	return nil
}

// DeleteSubtree clears every retained topic below prefix that this sink has
// published, by publishing empty retained payloads.
func (s *Sink) DeleteSubtree(prefix string) error {
	full := s.base + "/" + strings.TrimPrefix(prefix, "/")
	s.mu.Lock()
	var topics []string
	for t := range s.published {
		if strings.HasPrefix(t, full) {
			topics = append(topics, t)
		}
	}
	s.mu.Unlock()

	var firstErr error
	for _, t := range topics {
		token := s.cli.Publish(t, s.qos, true, []byte{})
		if token.Wait() && token.Error() != nil {
			if firstErr == nil {
				firstErr = token.Error()
			}
			continue
		}
		s.mu.Lock()
		delete(s.published, t)
		s.mu.Unlock()
	}
	return firstErr
}

// Disconnect gracefully closes the MQTT connection.
func (s *Sink) Disconnect() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}

// encodePayload renders value the way retained state topics expect: plain
// text for scalars, JSON for anything structured.
func encodePayload(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case float64:
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case float32:
		return []byte(strconv.FormatFloat(float64(v), 'f', -1, 32)), nil
	case int:
		return []byte(strconv.Itoa(v)), nil
	case int64:
		return []byte(strconv.FormatInt(v, 10)), nil
	case bool:
		return []byte(strconv.FormatBool(v)), nil
	default:
		return json.Marshal(v)
	}
}
