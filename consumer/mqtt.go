package consumer

import (
	"fmt"
	log "log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/textileio/go-threads/broadcast"

	"cryptics.app/cryptics-client/model"
	"cryptics.app/cryptics-client/summarytopic"
)

type MqttConsumerOptions struct {
	Enabled  bool
	Url      string `mapstructure:"url"`
	QOSLevel int    `mapstructure:"qos_level"`
}

// MqttConsumer republishes summary updates per symbol so alerting tooling can
// subscribe to just the pairs it cares about.
type MqttConsumer struct {
	SummaryListener *broadcast.Listener

	mqttClient mqtt.Client
	qosLevel   int
}

func (s *MqttConsumer) setup() error {
	if token := s.mqttClient.Connect(); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}
	log.Info("MQTT Consumer started")

	return nil
}

func (s *MqttConsumer) processSummary(summary *model.Summary) {
	if summary.LastPrice == nil {
		return
	}
	channel := fmt.Sprintf("summaries/%s", summary.Symbol)

	payload := fmt.Sprintf("%f,%d", *summary.LastPrice, summary.Timestamp().UnixMilli())
	token := s.mqttClient.Publish(channel, byte(s.qosLevel), false, payload)
	token.Wait()
}

func (s *MqttConsumer) StartSummaryListener(topic *summarytopic.SummaryTopic) {
	log.Debug("MQTT summary listener starting", "consumer", "mqtt")
	s.SummaryListener = topic.Listen()
	go func() {
		for summary := range s.SummaryListener.Channel() {
			s.processSummary(summary.(*model.Summary))
		}
	}()
}

func (s *MqttConsumer) CloseSummaryListener() error {
	s.SummaryListener.Discard()
	s.mqttClient.Disconnect(250)
	return nil
}

func NewMqttConsumer(options MqttConsumerOptions) *MqttConsumer {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(options.Url)
	opts.SetCleanSession(false)
	opts.SetAutoReconnect(true)
	opts.SetClientID("cryptics-client")

	newConsumer := &MqttConsumer{
		mqttClient: mqtt.NewClient(opts),
		qosLevel:   options.QOSLevel,
	}
	newConsumer.setup()

	return newConsumer
}
