package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newFakeService(t *testing.T, files int, peaks computeResponse) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/fetch", func(w http.ResponseWriter, r *http.Request) {
		var req fetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.PuckID == "" || req.Timestamp == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		out := fetchResponse{}
		for i := 0; i < files; i++ {
			out.Files = append(out.Files, json.RawMessage(`{"n":1}`))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/reports/compute", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(peaks)
	})
	return httptest.NewServer(mux)
}

func TestGenerate(t *testing.T) {
	peaks := computeResponse{
		MaxRangeOfMotion:       131.5,
		MaxLinearDisplacement:  4.2,
		MaxAngularDisplacement: 12.8,
		TimeSeries: []TimeSeriesPoint{
			{Time: 0, RangeOfMotion: 10, LinearDisplacement: 0.1, AngularDisplacement: 1},
			{Time: 1, RangeOfMotion: 131.5, LinearDisplacement: 4.2, AngularDisplacement: 12.8},
		},
	}
	srv := newFakeService(t, 3, peaks)
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zerolog.New(os.Stderr))
	result, err := c.Generate(context.Background(), "puck-7", "20250725-063723")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FilesProcessed != 3 {
		t.Errorf("FilesProcessed = %d, want 3", result.FilesProcessed)
	}
	if result.MaxRangeOfMotion != 131.5 {
		t.Errorf("MaxRangeOfMotion = %v, want 131.5", result.MaxRangeOfMotion)
	}
	if len(result.TimeSeries) != 2 {
		t.Errorf("TimeSeries length = %d, want 2", len(result.TimeSeries))
	}
	if result.PuckID != "puck-7" {
		t.Errorf("PuckID = %q, want puck-7", result.PuckID)
	}
}

// Some deployments of the processing service answer with a JSON body but
// no Content-Type header; the peaks must still come through.
func TestGenerate_MissingContentType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/fetch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"files":[{"n":1}]}`))
	})
	mux.HandleFunc("/reports/compute", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"maxRangeOfMotion":99.5,"timeSeriesData":[{"time":0,"rangeOfMotion":99.5}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zerolog.New(os.Stderr))
	result, err := c.Generate(context.Background(), "puck-7", "20250725-063723")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MaxRangeOfMotion != 99.5 {
		t.Errorf("MaxRangeOfMotion = %v, want 99.5", result.MaxRangeOfMotion)
	}
	if len(result.TimeSeries) != 1 {
		t.Errorf("TimeSeries length = %d, want 1", len(result.TimeSeries))
	}
}

// A 200 from the compute endpoint whose body parsed to nothing must not
// turn into an all-zero report.
func TestGenerate_EmptyComputeResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/fetch", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"files":[{"n":1}]}`))
	})
	mux.HandleFunc("/reports/compute", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zerolog.New(os.Stderr))
	if _, err := c.Generate(context.Background(), "puck-7", "20250725-063723"); err == nil {
		t.Error("expected error on empty compute result")
	}
}

func TestGenerate_NoFiles(t *testing.T) {
	srv := newFakeService(t, 0, computeResponse{})
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zerolog.New(os.Stderr))
	if _, err := c.Generate(context.Background(), "puck-7", "20250725-063723"); err == nil {
		t.Error("expected error when the service has no session files")
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second, zerolog.New(os.Stderr))
	if _, err := c.Generate(context.Background(), "puck-7", "x"); err == nil {
		t.Error("expected error on service failure")
	}
}
