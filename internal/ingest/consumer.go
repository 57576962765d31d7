package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// KPISink is what the consumer needs to persist incoming records.
// *db.DB satisfies it.
type KPISink interface {
	InsertKPIRecord(ctx context.Context, rec models.KPIRecord) error
}

// kpiEvent is one normalized KPI published by an upstream extraction or
// sync worker.
type kpiEvent struct {
	UserID       string    `json:"user_id"`
	PropertyName string    `json:"property_name"`
	KPIType      string    `json:"kpi_type"`
	KPIName      string    `json:"kpi_name"`
	Value        *float64  `json:"value"`
	Unit         string    `json:"unit"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	Confidence   float64   `json:"confidence"`
}

// Consumer ingests KPI events from Kafka and writes them as records.
type Consumer struct {
	reader *kafka.Reader
	sink   KPISink
	logger *logging.Logger
}

func NewConsumer(broker, topic, groupID string, sink KPISink, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, sink: sink, logger: logger}
}

// Start consumes until the context is cancelled.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("KPI event consumer started on topic %s", c.reader.Config().Topic)
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Infof("KPI event consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}

			var event kpiEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				c.logger.Errorf("Unmarshal KPI event failed: %v", err)
				continue
			}
			if event.UserID == "" || event.KPIType == "" || event.KPIName == "" {
				c.logger.Errorf("Invalid KPI event: missing user_id, kpi_type, or kpi_name")
				continue
			}

			rec := models.KPIRecord{
				UserID:               event.UserID,
				PropertyName:         event.PropertyName,
				KPIType:              event.KPIType,
				KPIName:              event.KPIName,
				Value:                event.Value,
				Unit:                 event.Unit,
				PeriodStart:          event.PeriodStart,
				PeriodEnd:            event.PeriodEnd,
				ExtractionConfidence: event.Confidence,
				CreatedAt:            time.Now(),
			}
			if err := c.sink.InsertKPIRecord(ctx, rec); err != nil {
				c.logger.Errorf("Failed to store KPI event for user %s: %v", event.UserID, err)
				continue
			}
			c.logger.Debugf("Ingested KPI event %s/%s for user %s", event.KPIType, event.KPIName, event.UserID)
		}
	}()
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
