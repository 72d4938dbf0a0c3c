package e2e

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient wraps the InfluxDB v2 client for reading back the points the
// service wrote during a run.
type InfluxClient struct {
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxClient creates a client for an already running server.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{bucket: bucket, client: c, query: c.QueryAPI(org)}
}

// CountPoints returns the number of records of measurement written within
// the last window.
func (c *InfluxClient) CountPoints(ctx context.Context, measurement string, window time.Duration) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q) |> range(start: -%s) |> filter(fn: (r) => r._measurement == %q)`,
		c.bucket, window.String(), measurement)
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	n := 0
	for res.Next() {
		n++
	}
	return n, res.Err()
}

// Ready reports whether the server answers its health check.
func (c *InfluxClient) Ready(ctx context.Context) bool {
	ok, err := c.client.Ping(ctx)
	return err == nil && ok
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
