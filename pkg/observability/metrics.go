package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsAPI is the subset of the CloudWatch client used for publishing.
type MetricsAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics handles application metrics and monitoring
type Metrics struct {
	namespace string
	client    MetricsAPI
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetrics creates a new metrics instance. A nil client disables
// publishing; every Record call becomes a no-op.
func NewMetrics(namespace string, client MetricsAPI, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordLatency records latency for any operation
func (m *Metrics) RecordLatency(ctx context.Context, operation string, latency time.Duration) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("OperationLatency"),
		Dimensions: dimensions("Operation", operation),
		Value:      aws.Float64(float64(latency.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
	})
}

// RecordError records error occurrences
func (m *Metrics) RecordError(ctx context.Context, operation string, errorType string) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("Errors"),
		Dimensions: dimensions("Operation", operation, "ErrorType", errorType),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
	})
}

// RecordCascadeFailure counts cascades that stopped partway. Alarms on this
// metric are how operators learn that chatctl repair-tags needs running.
func (m *Metrics) RecordCascadeFailure(ctx context.Context, cascade string, step string) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("CascadeFailures"),
		Dimensions: dimensions("Cascade", cascade),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
	})
	m.logger.Warn("Cascade failure recorded", zap.String("cascade", cascade), zap.String("step", step))
}

func (m *Metrics) put(ctx context.Context, datum types.MetricDatum) {
	if m.client == nil {
		return
	}
	datum.Timestamp = aws.Time(m.now())

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []types.MetricDatum{datum},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		// Metrics never fail the operation being measured
		m.logger.Warn("Failed to send metrics",
			zap.String("metric", aws.ToString(datum.MetricName)),
			zap.Error(err),
		)
	}
}

func dimensions(pairs ...string) []types.Dimension {
	out := make([]types.Dimension, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.Dimension{
			Name:  aws.String(pairs[i]),
			Value: aws.String(pairs[i+1]),
		})
	}
	return out
}
