package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/teslashibe/go-posture/pkg/protocol"
)

// DefaultTopicPrefix roots all posture topics
const DefaultTopicPrefix = "posture"

// MQTTConfig holds broker settings
type MQTTConfig struct {
	Broker      string // e.g. tcp://localhost:1883
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
}

// mqttPublisher is the part of mqtt.Client the sink needs
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes events to <prefix>/<session>/events and retains the latest
// status on <prefix>/<session>/state
type MQTT struct {
	client mqttPublisher
	prefix string
	qos    byte
}

// NewMQTT wraps a connected client
func NewMQTT(client mqttPublisher, prefix string, qos byte) *MQTT {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &MQTT{client: client, prefix: prefix, qos: qos}
}

// DialMQTT connects to the broker with auto-reconnect enabled
func DialMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, ErrNotConfigured
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return NewMQTT(client, cfg.TopicPrefix, cfg.QoS), nil
}

// EventTopic returns the event topic for a session
func (m *MQTT) EventTopic(sessionID string) string {
	return m.prefix + "/" + sessionID + "/events"
}

// StateTopic returns the retained state topic for a session
func (m *MQTT) StateTopic(sessionID string) string {
	return m.prefix + "/" + sessionID + "/state"
}

// PublishEvent publishes e on the session event topic
func (m *MQTT) PublishEvent(ctx context.Context, e protocol.EventData) error {
	return m.publish(ctx, m.EventTopic(e.SessionID), false, e)
}

// PublishStatus publishes st as the retained session state
func (m *MQTT) PublishStatus(ctx context.Context, st protocol.StatusData) error {
	return m.publish(ctx, m.StateTopic(st.SessionID), true, st)
}

func (m *MQTT) publish(ctx context.Context, topic string, retained bool, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	token := m.client.Publish(topic, m.qos, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("failed to publish to topic %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
