package awsx

import (
	"context"
	"log"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics emits operational counters to CloudWatch. Emission failures are
// logged and swallowed; metrics must never affect the request path.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
}

func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{client: client, namespace: namespace}
}

// Count emits a single count datum with optional dimensions.
func (m *Metrics) Count(ctx context.Context, name string, dims map[string]string) {
	if m == nil || m.client == nil {
		return
	}
	datum := cwtypes.MetricDatum{
		MetricName: sdkaws.String(name),
		Value:      sdkaws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
	}
	for k, v := range dims {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  sdkaws.String(k),
			Value: sdkaws.String(v),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		log.Printf("metrics: put %s failed: %v", name, err)
	}
}
