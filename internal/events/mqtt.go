package events

import (
	"encoding/json"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// MQTTPublisher maps broadcasts onto MQTT topics: "city/events/<event>"
// for the global stream and "city/rooms/<room>/<event>" for room-scoped
// ones. QoS 0, fire-and-forget.
type MQTTPublisher struct {
	client mqtt.Client
}

func NewMQTTPublisher(broker string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MQTTPublisher{client: client}, nil
}

func (p *MQTTPublisher) Broadcast(event string, payload interface{}) {
	p.publish("city/events/"+event, event, payload)
}

func (p *MQTTPublisher) BroadcastToRoom(room, event string, payload interface{}) {
	p.publish("city/rooms/"+room+"/"+event, event, payload)
}

func (p *MQTTPublisher) publish(topic, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("event payload marshal failed")
		return
	}
	token := p.client.Publish(topic, 0, false, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("event publish failed")
		}
	}()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
