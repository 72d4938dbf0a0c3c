package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremqtt "github.com/kilianp07/splan/core/mqtt"
	"github.com/kilianp07/splan/infra/logger"
)

// Availability payloads.
const (
	Online  = "online"
	Offline = "offline"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled    bool        `json:"enabled"`
	Broker     string      `json:"broker"`
	ClientID   string      `json:"client_id"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	QoS        byte        `json:"qos"`
	MaxRetries int         `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`

	// TopicPrefix and NodeID build the topics <prefix>/<node>/state and
	// <prefix>/<node>/availability.
	TopicPrefix string `json:"topic_prefix"`
	NodeID      string `json:"node_id"`
	// Discovery publishes a Home Assistant sensor config under
	// DiscoveryPrefix on every connect.
	Discovery       *bool  `json:"discovery"`
	DiscoveryPrefix string `json:"discovery_prefix"`
	Name            string `json:"name"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "splan-" + uuid.NewString()[:8]
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "splan"
	}
	if c.NodeID == "" {
		c.NodeID = "timetable"
	}
	if c.Discovery == nil {
		v := true
		c.Discovery = &v
	}
	if c.DiscoveryPrefix == "" {
		c.DiscoveryPrefix = "homeassistant"
	}
	if c.Name == "" {
		c.Name = "Stundenplan"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2")
	}
	if strings.ContainsAny(c.NodeID, "/+#") {
		return fmt.Errorf("node_id %q must not contain topic separators or wildcards", c.NodeID)
	}
	return nil
}

// StateTopic returns the retained state topic.
func (c Config) StateTopic() string { return c.TopicPrefix + "/" + c.NodeID + "/state" }

// AvailabilityTopic returns the availability topic carrying the LWT.
func (c Config) AvailabilityTopic() string {
	return c.TopicPrefix + "/" + c.NodeID + "/availability"
}

// DiscoveryTopic returns the Home Assistant discovery config topic.
func (c Config) DiscoveryTopic() string {
	return c.DiscoveryPrefix + "/sensor/" + c.NodeID + "/timetable/config"
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient publishes the timetable state and feeds entity topics using
// Eclipse Paho.
type PahoClient struct {
	cli    pahoClient
	cfg    Config
	logger logger.Logger

	mu   sync.Mutex
	subs map[string]coremqtt.Handler
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker. On every (re)connect the client
// announces itself online, publishes the discovery config and restores its
// subscriptions.
func NewPahoClient(cfg Config, log logger.Logger) (*PahoClient, error) {
	cfg.SetDefaults()
	if log == nil {
		log = logger.New("mqtt_client")
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	pc := &PahoClient{cfg: cfg, logger: log, subs: make(map[string]coremqtt.Handler)}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		pc.onConnect(c)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	pc.cli = c
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config. The availability
// topic receives a retained "offline" last will.
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
	opts.SetWill(cfg.AvailabilityTopic(), Offline, cfg.QoS, true)
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
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (p *PahoClient) onConnect(c pahoClient) {
	if token := c.Publish(p.cfg.AvailabilityTopic(), p.cfg.QoS, true, Online); token.Wait() && token.Error() != nil {
		p.logger.Errorf("publish availability: %v", token.Error())
	}
	if *p.cfg.Discovery {
		if err := p.publishDiscovery(c); err != nil {
			p.logger.Errorf("publish discovery: %v", err)
		}
	}
	p.mu.Lock()
	subs := make(map[string]coremqtt.Handler, len(p.subs))
	for t, h := range p.subs {
		subs[t] = h
	}
	p.mu.Unlock()
	for topic, h := range subs {
		if token := c.Subscribe(topic, p.cfg.QoS, wrap(h)); token.Wait() && token.Error() != nil {
			p.logger.Errorf("subscribe %s: %v", topic, token.Error())
		}
	}
}

func (p *PahoClient) publishDiscovery(c pahoClient) error {
	payload, err := json.Marshal(DiscoveryConfig(p.cfg))
	if err != nil {
		return err
	}
	token := c.Publish(p.cfg.DiscoveryTopic(), p.cfg.QoS, true, payload)
	token.Wait()
	return token.Error()
}

func wrap(h coremqtt.Handler) paho.MessageHandler {
	return func(_ paho.Client, m paho.Message) {
		h(m.Topic(), m.Payload())
	}
}

// PublishState publishes msg retained on the state topic, retrying with
// exponential backoff.
func (p *PahoClient) PublishState(msg coremqtt.StateMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if !p.cli.IsConnected() {
		return coremqtt.ErrNotConnected
	}
	backoff := time.Duration(p.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(p.cfg.StateTopic(), p.cfg.QoS, true, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			p.logger.Debugf("published state (%d rows) to %s", len(msg.Rows), p.cfg.StateTopic())
			return nil
		}
		p.logger.Warnf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.cfg.MaxRetries {
			time.Sleep(backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish state: %w", publishErr)
}

// Subscribe registers h for topic. The subscription is restored after
// reconnects.
func (p *PahoClient) Subscribe(topic string, h coremqtt.Handler) error {
	p.mu.Lock()
	p.subs[topic] = h
	p.mu.Unlock()
	if !p.cli.IsConnected() {
		return nil
	}
	token := p.cli.Subscribe(topic, p.cfg.QoS, wrap(h))
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// Disconnect announces the client offline and closes the connection.
func (p *PahoClient) Disconnect() {
	if p.cli == nil || !p.cli.IsConnected() {
		return
	}
	token := p.cli.Publish(p.cfg.AvailabilityTopic(), p.cfg.QoS, true, Offline)
	token.WaitTimeout(time.Second)
	p.cli.Disconnect(250)
}
