package eventbridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chatapi/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	calls  [][]types.PutEventsRequestEntry
	failed int32
}

func (f *fakeBus) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in.Entries)
	out := &eventbridge.PutEventsOutput{FailedEntryCount: f.failed}
	for range in.Entries {
		entry := types.PutEventsResultEntry{}
		if f.failed > 0 {
			entry.ErrorCode = aws.String("InternalFailure")
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func TestPublishBatchChunksByTen(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, "chat-bus", nil)
	ts := time.Unix(1_700_000_000, 0)

	var batch []events.DomainEvent
	for i := 0; i < 23; i++ {
		batch = append(batch, events.NewTagDeleted("t1", i, ts))
	}
	require.NoError(t, p.PublishBatch(context.Background(), batch))

	require.Len(t, bus.calls, 3)
	assert.Len(t, bus.calls[0], 10)
	assert.Len(t, bus.calls[2], 3)

	entry := bus.calls[0][0]
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeTagDeleted, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "t1", detail["aggregate_id"])
}

func TestPublishReportsFailedEntries(t *testing.T) {
	bus := &fakeBus{failed: 1}
	p := NewPublisher(bus, "chat-bus", nil)
	err := p.Publish(context.Background(), events.NewTagDeleted("t1", 0, time.Now()))
	assert.Error(t, err)
}

func TestPublisherWithoutBusOnlyLogs(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, "", nil)
	require.NoError(t, p.Publish(context.Background(), events.NewTagDeleted("t1", 0, time.Now())))
	assert.Empty(t, bus.calls)
}
