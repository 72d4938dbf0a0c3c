package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"testing"
	"time"

	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/splan/core/mqtt"
	"github.com/kilianp07/splan/infra/logger"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0644); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := os.WriteFile(caFile, certPEM, 0644); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 {
		t.Fatalf("no certs loaded")
	}
	if tlsCfg.RootCAs == nil {
		t.Fatalf("no root CAs")
	}
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}
}

func TestLoadTLSConfigMissingFiles(t *testing.T) {
	_, err := Config{UseTLS: true}.LoadTLSConfig()
	require.Error(t, err)
}

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func TestConnectAnnouncesAvailabilityAndDiscovery(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	_, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", QoS: 1}, logger.NopLogger{})
	require.NoError(t, err)

	require.Len(t, mc.published, 2)
	assert.Equal(t, "splan/timetable/availability", mc.published[0].topic)
	assert.Equal(t, Online, mc.published[0].payload)
	assert.True(t, mc.published[0].retained)
	assert.Equal(t, byte(1), mc.published[0].qos)

	assert.Equal(t, "homeassistant/sensor/timetable/timetable/config", mc.published[1].topic)
	var d Discovery
	require.NoError(t, json.Unmarshal(mc.published[1].payload.([]byte), &d))
	assert.Equal(t, "splan/timetable/state", d.StateTopic)
	assert.Equal(t, "splan/timetable/availability", d.AvailabilityTopic)
	assert.Equal(t, "splan_timetable", d.UniqueID)
}

func TestDiscoveryDisabled(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	off := false
	_, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", Discovery: &off}, logger.NopLogger{})
	require.NoError(t, err)
	require.Len(t, mc.published, 1)
	assert.Equal(t, "splan/timetable/availability", mc.published[0].topic)
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", TopicPrefix: "school", NodeID: "7a"}, logger.NopLogger{})
	require.NoError(t, err)
	require.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "school/7a/availability", mc.opts.WillTopic)
	assert.Equal(t, Offline, string(mc.opts.WillPayload))
	assert.True(t, mc.opts.WillRetained)

	mc.published = nil
	cli.Disconnect()
	require.Len(t, mc.published, 1)
	assert.Equal(t, Offline, mc.published[0].payload)
	assert.True(t, mc.disconnected)
}

func TestPublishStateRetained(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883"}, logger.NopLogger{})
	require.NoError(t, err)
	mc.published = nil

	msg := coremqtt.StateMessage{State: "ok", Source: "splan", Week: "A"}
	require.NoError(t, cli.PublishState(msg))
	require.Len(t, mc.published, 1)
	assert.Equal(t, "splan/timetable/state", mc.published[0].topic)
	assert.True(t, mc.published[0].retained)

	var got map[string]any
	require.NoError(t, json.Unmarshal(mc.published[0].payload.([]byte), &got))
	assert.Equal(t, "ok", got["state"])
	assert.Equal(t, "A", got["week"])
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1}, logger.NopLogger{})
	require.NoError(t, err)
	mc.published = nil
	mc.publishErrs = []error{fmt.Errorf("net fail"), nil}

	require.NoError(t, cli.PublishState(coremqtt.StateMessage{State: "ok"}))
	assert.Len(t, mc.published, 2)
}

func TestRetryExhausted(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1}, logger.NopLogger{})
	require.NoError(t, err)
	mc.published = nil
	mc.publishErrs = []error{fmt.Errorf("a"), fmt.Errorf("b")}

	err = cli.PublishState(coremqtt.StateMessage{State: "ok"})
	require.Error(t, err)
	assert.Len(t, mc.published, 2)
}

func TestPublishNotConnected(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883"}, logger.NopLogger{})
	require.NoError(t, err)
	mc.offline = true
	assert.ErrorIs(t, cli.PublishState(coremqtt.StateMessage{}), coremqtt.ErrNotConnected)
}

func TestSubscribeRestoredOnReconnect(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", QoS: 1}, logger.NopLogger{})
	require.NoError(t, err)

	var gotTopic, gotPayload string
	require.NoError(t, cli.Subscribe("home/week", func(topic string, payload []byte) {
		gotTopic, gotPayload = topic, string(payload)
	}))
	require.Len(t, mc.subscribed, 1)
	assert.Equal(t, byte(1), mc.subscribed[0].qos)

	mc.handlers["home/week"](mc, mockMessage{topic: "home/week", p: []byte("B")})
	assert.Equal(t, "home/week", gotTopic)
	assert.Equal(t, "B", gotPayload)

	mc.opts.OnConnect(mc)
	require.Len(t, mc.subscribed, 2)
	assert.Equal(t, "home/week", mc.subscribed[1].topic)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())
	assert.Error(t, Config{Enabled: true, Broker: "tcp://x", QoS: 3}.Validate())
	assert.Error(t, Config{Enabled: true, Broker: "tcp://x", NodeID: "a/b"}.Validate())
	assert.NoError(t, Config{Enabled: true, Broker: "tcp://x", NodeID: "plan"}.Validate())
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts         *paho.ClientOptions
	offline      bool
	disconnected bool
	subscribed   []struct {
		topic string
		qos   byte
	}
	handlers  map[string]paho.MessageHandler
	published []struct {
		topic    string
		qos      byte
		retained bool
		payload  interface{}
	}
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return !m.offline }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.published = append(m.published, struct {
		topic    string
		qos      byte
		retained bool
		payload  interface{}
	}{topic, qos, retained, payload})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, h paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, struct {
		topic string
		qos   byte
	}{topic, qos})
	if m.handlers == nil {
		m.handlers = make(map[string]paho.MessageHandler)
	}
	m.handlers[topic] = h
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct {
	topic string
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}
