package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"videolens/types"
)

// Event is one analysis lifecycle notification.
type Event struct {
	Type       string             `json:"type"` // analysis.started, analysis.completed, analysis.failed
	AnalysisID string             `json:"analysis_id"`
	Filename   string             `json:"filename"`
	Mode       types.AnalysisMode `json:"mode"`
	Timestamp  string             `json:"timestamp"`
	Error      string             `json:"error,omitempty"`
}

// Publisher emits analysis lifecycle events. Publishing is best-effort:
// a failed publish never fails the analysis itself.
type Publisher interface {
	Publish(e Event)
	Close() error
}

// Nop is the Publisher used when no broker is configured.
type Nop struct{}

func (Nop) Publish(Event) {}
func (Nop) Close() error  { return nil }

// KafkaConfig holds Kafka producer configuration.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Kafka publishes lifecycle events to a Kafka topic.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewKafka creates a Kafka publisher.
func NewKafka(cfg KafkaConfig, logger *slog.Logger) (*Kafka, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "videolens.analysis"
	}
	return &Kafka{producer: producer, topic: topic, logger: logger}, nil
}

func (k *Kafka) Publish(e Event) {
	if e.Timestamp == "" {
		e.Timestamp = time.Now().Format(time.RFC3339)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		k.logger.Error("marshal event", "type", e.Type, "error", err)
		return
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(e.AnalysisID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		k.logger.Error("publish event", "type", e.Type, "analysis_id", e.AnalysisID, "error", err)
	}
}

// Close gracefully shuts down the producer.
func (k *Kafka) Close() error { return k.producer.Close() }
