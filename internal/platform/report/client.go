// Package report talks to the external report-processing service: it asks
// the service to pull the session files recorded by a puck and run the
// computation, and returns the peak values and time series consumed by
// test recording. Pure I/O glue; nothing here is retried beyond transport
// errors.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// TimeSeriesPoint is one sample of the computed session curve.
type TimeSeriesPoint struct {
	Time                float64 `json:"time"`
	RangeOfMotion       float64 `json:"rangeOfMotion"`
	LinearDisplacement  float64 `json:"linearDisplacement"`
	AngularDisplacement float64 `json:"angularDisplacement"`
}

// Result is the merged output of the fetch + compute exchange.
type Result struct {
	PuckID                 string            `json:"puckId"`
	MaxRangeOfMotion       float64           `json:"maxRangeOfMotion"`
	MaxLinearDisplacement  float64           `json:"maxLinearDisplacement"`
	MaxAngularDisplacement float64           `json:"maxAngularDisplacement"`
	TimeSeries             []TimeSeriesPoint `json:"timeSeriesData"`
	FilesProcessed         int               `json:"filesProcessed"`
}

type fetchRequest struct {
	PuckID    string `json:"puckId"`
	Timestamp string `json:"timestamp"`
}

type fetchResponse struct {
	Files []json.RawMessage `json:"files"`
}

type computeRequest struct {
	PuckID string            `json:"puckId"`
	Files  []json.RawMessage `json:"files"`
}

type computeResponse struct {
	MaxRangeOfMotion       float64           `json:"maxRangeOfMotion"`
	MaxLinearDisplacement  float64           `json:"maxLinearDisplacement"`
	MaxAngularDisplacement float64           `json:"maxAngularDisplacement"`
	TimeSeries             []TimeSeriesPoint `json:"timeSeriesData"`
}

// Client wraps the report-processing HTTP API.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient builds a report client against baseURL. Retries apply only to
// transport failures; an application-level failure is surfaced once.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: hc, logger: logger}
}

// Generate fetches the puck's session files for the given timestamp and
// forwards them for computation.
func (c *Client) Generate(ctx context.Context, puckID, timestamp string) (*Result, error) {
	var files fetchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fetchRequest{PuckID: puckID, Timestamp: timestamp}).
		SetResult(&files).
		ForceContentType("application/json").
		Post("/files/fetch")
	if err != nil {
		return nil, fmt.Errorf("fetch session files: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch session files: service returned %d", resp.StatusCode())
	}
	if len(files.Files) == 0 {
		return nil, fmt.Errorf("no session files for puck %s at %s", puckID, timestamp)
	}

	var computed computeResponse
	resp, err = c.http.R().
		SetContext(ctx).
		SetBody(computeRequest{PuckID: puckID, Files: files.Files}).
		SetResult(&computed).
		ForceContentType("application/json").
		Post("/reports/compute")
	if err != nil {
		return nil, fmt.Errorf("compute report: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("compute report: service returned %d", resp.StatusCode())
	}
	if len(computed.TimeSeries) == 0 {
		return nil, fmt.Errorf("compute report: empty result for puck %s", puckID)
	}

	c.logger.Info().
		Str("puck_id", puckID).
		Int("files", len(files.Files)).
		Int("samples", len(computed.TimeSeries)).
		Msg("report generated")

	return &Result{
		PuckID:                 puckID,
		MaxRangeOfMotion:       computed.MaxRangeOfMotion,
		MaxLinearDisplacement:  computed.MaxLinearDisplacement,
		MaxAngularDisplacement: computed.MaxAngularDisplacement,
		TimeSeries:             computed.TimeSeries,
		FilesProcessed:         len(files.Files),
	}, nil
}
