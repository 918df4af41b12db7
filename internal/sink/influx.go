package sink

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/smukkama/dwd-ingest/internal/points"
	"github.com/smukkama/dwd-ingest/pkg/config"
)

// InfluxWriter writes points to InfluxDB 2.x. Influx keys stored values by
// measurement, tag set and timestamp, so re-writing a point overwrites it.
type InfluxWriter struct {
	client    influxdb2.Client
	writeAPI  api.WriteAPIBlocking
	batchSize int
}

// NewInfluxWriter connects to the configured InfluxDB instance.
func NewInfluxWriter(cfg config.InfluxConfig, batchSize int) *InfluxWriter {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetPrecision(time.Second))

	return &InfluxWriter{
		client:    client,
		writeAPI:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		batchSize: batchSize,
	}
}

// Ping verifies connectivity before any fetch work is started.
func (w *InfluxWriter) Ping(ctx context.Context) error {
	ok, err := w.client.Ping(ctx)
	if err != nil || !ok {
		return fmt.Errorf("%w: influx ping: %v", ErrUnavailable, err)
	}
	return nil
}

// WritePoints writes pts in bounded batches and returns how many points
// were accepted before the first failing batch.
func (w *InfluxWriter) WritePoints(ctx context.Context, pts []points.Point) (int, error) {
	written := 0
	for _, part := range batch(pts, w.batchSize) {
		converted := make([]*write.Point, 0, len(part))
		for _, p := range part {
			fields := make(map[string]interface{}, len(p.Fields))
			for k, v := range p.Fields {
				fields[k] = v
			}
			converted = append(converted, write.NewPoint(p.Measurement, p.Tags, fields, p.Time))
		}

		if err := w.writeAPI.WritePoint(ctx, converted...); err != nil {
			return written, fmt.Errorf("%w: writing batch of %d: %v", ErrUnavailable, len(part), err)
		}
		written += len(part)
	}
	return written, nil
}

// Close releases the client.
func (w *InfluxWriter) Close() error {
	w.client.Close()
	return nil
}
