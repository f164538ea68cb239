package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ayusman/puppet/internal/tracking"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publishTimeout bounds how long a frame waits for the broker.
const publishTimeout = 100 * time.Millisecond

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker   string
	ClientID string
	Topic    string

	// TrackingTopic is subscribed for incoming frames when set.
	TrackingTopic string
}

// client is the part of mqtt.Client used here.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes pose messages to a broker topic and can feed tracking
// frames received on another topic into the pipeline.
type MQTT struct {
	client client
	opts   MQTTOptions
	logger *slog.Logger
}

// DialMQTT connects to the broker.
func DialMQTT(opts MQTTOptions, logger *slog.Logger) (*MQTT, error) {
	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true)

	c := mqtt.NewClient(co)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", opts.Broker, token.Error())
	}
	return newMQTT(c, opts, logger), nil
}

func newMQTT(c client, opts MQTTOptions, logger *slog.Logger) *MQTT {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTT{client: c, opts: opts, logger: logger}
}

// Publish sends msg as JSON on the pose topic with QoS 0.
func (m *MQTT) Publish(msg PoseMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode pose: %w", err)
	}
	token := m.client.Publish(m.opts.Topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish %s: timed out", m.opts.Topic)
	}
	return token.Error()
}

// SubscribeFrames decodes frames from the tracking topic and passes them to
// put. Undecodable payloads are logged and dropped.
func (m *MQTT) SubscribeFrames(put func(tracking.Frame)) error {
	if m.opts.TrackingTopic == "" {
		return nil
	}
	token := m.client.Subscribe(m.opts.TrackingTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		f, err := tracking.DecodeFrame(msg.Payload())
		if err != nil {
			m.logger.Warn("mqtt tracking frame", "topic", msg.Topic(), "err", err)
			return
		}
		put(f)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", m.opts.TrackingTopic, err)
	}
	m.logger.Info("subscribed to tracking topic", "topic", m.opts.TrackingTopic)
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
