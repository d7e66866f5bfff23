// Package observability emits operational metrics to CloudWatch. Webhook and
// checkout outcomes are the signals that matter here: a spike in rejected
// signatures or provider failures is the first sign of a misconfigured secret
// or a provider incident.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// metricNamespace is the CloudWatch namespace for all Presskit metrics.
const metricNamespace = "Presskit"

// Webhook outcome dimension values.
const (
	OutcomeHandled          = "handled"
	OutcomeIgnored          = "ignored"
	OutcomeSignatureInvalid = "signature_invalid"
	OutcomeMalformed        = "malformed"
	OutcomeNotFound         = "not_found"
	OutcomeStoreFailure     = "store_failure"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability. Production code uses the *cloudwatch.Client from aws-sdk-go-v2.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes counters and latencies. All emission is best-effort:
// failures are logged and never propagated to the request path. A nil client
// disables emission entirely, which is how local environments run.
type Metrics struct {
	client    CloudWatchClient
	namespace string
	service   string
	logger    *slog.Logger
}

// NewMetrics creates a Metrics publisher. If logger is nil, slog.Default()
// is used.
func NewMetrics(client CloudWatchClient, service string, logger *slog.Logger) *Metrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Metrics{
		client:    client,
		namespace: metricNamespace,
		service:   service,
		logger:    logger,
	}
}

// RecordWebhookOutcome counts one webhook delivery by outcome.
func (m *Metrics) RecordWebhookOutcome(ctx context.Context, outcome string) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String("WebhookDelivery"),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("Service"), Value: aws.String(m.service)},
			{Name: aws.String("Outcome"), Value: aws.String(outcome)},
		},
	})
}

// RecordCheckoutOutcome counts one checkout attempt; success is the only
// dimension split because the error taxonomy already lands in logs.
func (m *Metrics) RecordCheckoutOutcome(ctx context.Context, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String("CheckoutAttempt"),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("Service"), Value: aws.String(m.service)},
			{Name: aws.String("Result"), Value: aws.String(result)},
		},
	})
}

// RecordRequestLatency emits per-route request latency in milliseconds.
func (m *Metrics) RecordRequestLatency(ctx context.Context, route string, duration time.Duration) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String("RequestLatency"),
		Value:      aws.Float64(float64(duration.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("Service"), Value: aws.String(m.service)},
			{Name: aws.String("Route"), Value: aws.String(route)},
		},
	})
}

func (m *Metrics) put(ctx context.Context, datum cwtypes.MetricDatum) {
	if m.client == nil {
		return
	}
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.WarnContext(ctx, "failed to publish metric",
			"metric", aws.ToString(datum.MetricName),
			"error", err,
		)
	}
}
