package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// backlogCapacity bounds how many messages are held for replay while the
// broker is unreachable.
const backlogCapacity = 64

// RealPublisher publishes to an actual MQTT broker, buffering messages
// while disconnected and replaying them on reconnect.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	backlog *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker. The
// client id carries a random suffix so two sensors on one broker never
// fight over a session.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{backlog: newRingBuffer(backlogCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("gate-sensor-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	p.client.Connect() // retries in the background until the broker appears
	return p
}

// Publish sends a gate event to the MQTT broker, buffering it when the
// broker is unreachable.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(Topic, payload, 0, false)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once): lifecycle events should survive a flaky link
	return p.send(TopicSystem, payload, 1, event.Retained)
}

func (p *RealPublisher) send(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.backlog.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// onConnect replays any messages buffered while the broker was unreachable.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	pending := p.backlog.drainAll()
	p.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	log.Info().Int("messages", len(pending)).Msg("replaying buffered mqtt messages")
	for _, msg := range pending {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Warn().Str("topic", msg.topic).Msg("replay timeout")
		} else if err := token.Error(); err != nil {
			log.Warn().Err(err).Str("topic", msg.topic).Msg("replay failed")
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
