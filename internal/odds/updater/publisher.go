package updater

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/betline/betline/pkg/contracts/events"
)

// KafkaPublisher emits run summaries to the odds_refreshed topic.
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) PublishOddsRefreshed(ctx context.Context, e events.OddsRefreshed) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.RunID), Value: b})
}
