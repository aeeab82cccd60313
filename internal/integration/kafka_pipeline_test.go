//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkatc "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/tide-chart-service/internal/adapter/kafka"
	"github.com/couchcryptid/tide-chart-service/internal/config"
	"github.com/couchcryptid/tide-chart-service/internal/domain"
	"github.com/couchcryptid/tide-chart-service/internal/fallback"
	"github.com/couchcryptid/tide-chart-service/internal/observability"
	"github.com/couchcryptid/tide-chart-service/internal/pipeline"
	"github.com/couchcryptid/tide-chart-service/internal/scale"
	"github.com/couchcryptid/tide-chart-service/internal/validation"
)

const (
	testSourceTopic = "test-raw-tide-series"
	testSinkTopic   = "test-chart-ready-series"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// advertised address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafkatc.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkatc.WithClusterID("tide-chart-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func newProcessor(t *testing.T) *pipeline.ChartProcessor {
	t.Helper()
	handler, err := fallback.NewHandler()
	require.NoError(t, err)
	return pipeline.NewChartProcessor(
		validation.NewEngine(nil, nil),
		handler,
		scale.NewCalculator(0),
		validation.Options{},
		5*time.Second,
		observability.NewMetricsForTesting(),
		discardLogger(),
	)
}

func testRequests() []domain.ChartRequest {
	return []domain.ChartRequest{
		{
			StationID: "shinagawa",
			Samples: []domain.RawSample{
				{Time: "2025-01-29T00:00:00Z", Level: -150},
				{Time: "2025-01-29T06:00:00Z", Level: 230},
				{Time: "2025-01-29T12:00:00Z", Level: -80},
				{Time: "2025-01-29T18:00:00Z", Level: 190},
			},
		},
		{
			StationID: "choshi",
			Samples: []domain.RawSample{
				{Time: "2025-01-29T00:00:00Z", Level: 40},
				{Time: "29/01/2025", Level: 80},
				{Time: "2025-01-29T12:00:00Z", Level: -60},
				{Time: "2025-01-29T18:00:00Z", Level: 45},
			},
		},
		{
			StationID: "kushiro",
			Locale:    "ja",
			Samples:   []domain.RawSample{},
		},
	}
}

// sinkMessage holds a deserialized message read from the sink topic.
type sinkMessage struct {
	Payload pipeline.ChartPayload
	Key     string
	Headers map[string]string
}

// readPayload reads a single message from the sink consumer and deserializes it.
func readPayload(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sinkMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var payload pipeline.ChartPayload
	require.NoError(t, json.Unmarshal(msg.Value, &payload), "unmarshal sink message")

	return sinkMessage{
		Payload: payload,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor)
// and kafka.Writer (Loader) correctly round-trip a series through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
	}

	request := testRequests()[0]
	payload, err := json.Marshal(request)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(request.StationID),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte(request.StationID), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	require.NoError(t, raw.Commit(ctx))

	// Process the raw event into a chart payload.
	out, err := newProcessor(t).Process(ctx, raw)
	require.NoError(t, err)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	sm := readPayload(ctx, t, consumer)
	assert.Equal(t, "shinagawa", sm.Key)
	assert.Equal(t, "none", sm.Headers["fallback_type"])
	assert.Contains(t, sm.Headers, "processed_at")
	_, err = time.Parse(time.RFC3339, sm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.True(t, sm.Payload.IsValid)
	assert.Len(t, sm.Payload.Readings, 4)
	assert.Equal(t, -200.0, sm.Payload.Scale.Min)
	assert.Equal(t, 300.0, sm.Payload.Scale.Max)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Processor → Writer)
// with real Kafka and verifies every station series produces a payload with
// the expected fallback mode.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
	}

	requests := testRequests()

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(requests)+1)
	for _, req := range requests {
		payload, err := json.Marshal(req)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(req.StationID),
			Value: payload,
		})
	}
	// Poison pill: unparsable JSON must be skipped, not wedge the pipeline.
	msgs = append(msgs, kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")})
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newProcessor(t), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]sinkMessage, len(requests))
	for len(received) < len(requests) {
		sm := readPayload(ctx, t, consumer)
		received[sm.Key] = sm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, received, len(requests))
	for key, sm := range received {
		assert.NotEmpty(t, sm.Headers["fallback_type"], "missing fallback_type header for %s", key)
		assert.Contains(t, sm.Headers, "processed_at", "missing processed_at header for %s", key)
		_, err := time.Parse(time.RFC3339, sm.Headers["processed_at"])
		assert.NoError(t, err, "invalid processed_at format for %s", key)
	}

	// Fully valid series renders without degradation.
	shinagawa := received["shinagawa"]
	assert.True(t, shinagawa.Payload.IsValid)
	assert.Equal(t, fallback.FallbackNone, shinagawa.Payload.FallbackType)
	assert.Len(t, shinagawa.Payload.Readings, 4)

	// One bad sample out of four keeps a partial chart.
	choshi := received["choshi"]
	assert.False(t, choshi.Payload.IsValid)
	assert.Equal(t, fallback.FallbackPartialChart, choshi.Payload.FallbackType)
	assert.Len(t, choshi.Payload.Readings, 3)
	require.Len(t, choshi.Payload.Errors, 1)
	assert.Equal(t, validation.FailureInvalidTimeFormat, choshi.Payload.Errors[0].Code)

	// Empty series degrades to the table with localized messaging.
	kushiro := received["kushiro"]
	assert.False(t, kushiro.Payload.IsValid)
	assert.Equal(t, fallback.FallbackTable, kushiro.Payload.FallbackType)
	require.Len(t, kushiro.Payload.Display, 1)
	assert.Equal(t, "潮位データを利用できません", kushiro.Payload.Display[0].Title)

	// The poison pill never reaches the sink.
	_, ok := received["bad"]
	assert.False(t, ok)
}
