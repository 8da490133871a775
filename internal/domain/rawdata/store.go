package rawdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TTL is how long a puck's frames stay buffered after the last upload.
const TTL = time.Hour

const keyPrefix = "rawdata:"

// ErrNotFound is returned when a puck has no buffered frames.
var ErrNotFound = errors.New("no raw data for puck")

// Capture is the buffered upload state for one puck.
type Capture struct {
	PuckID    string            `json:"puckId"`
	Frames    []json.RawMessage `json:"frames"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Store keeps per-puck captures in a KV with a sliding expiry.
type Store struct {
	kv     KV
	logger zerolog.Logger
}

// NewStore creates a new raw data store.
func NewStore(kv KV, logger zerolog.Logger) *Store {
	return &Store{kv: kv, logger: logger.With().Str("component", "rawdata-store").Logger()}
}

func key(puckID string) string { return keyPrefix + puckID }

// Append adds one frame to the puck's capture and refreshes the expiry.
// It returns the total number of buffered frames.
func (s *Store) Append(ctx context.Context, puckID string, frame json.RawMessage) (int, error) {
	capture := &Capture{PuckID: puckID}

	raw, err := s.kv.Get(ctx, key(puckID))
	switch {
	case errors.Is(err, ErrKeyNotFound):
		// first frame of a session
	case err != nil:
		return 0, fmt.Errorf("read capture: %w", err)
	default:
		if err := json.Unmarshal(raw, capture); err != nil {
			return 0, fmt.Errorf("decode capture: %w", err)
		}
	}

	capture.Frames = append(capture.Frames, frame)
	capture.UpdatedAt = time.Now().UTC()

	encoded, err := json.Marshal(capture)
	if err != nil {
		return 0, fmt.Errorf("encode capture: %w", err)
	}
	if err := s.kv.Set(ctx, key(puckID), encoded, TTL); err != nil {
		return 0, fmt.Errorf("write capture: %w", err)
	}
	return len(capture.Frames), nil
}

// Get returns the puck's buffered capture.
func (s *Store) Get(ctx context.Context, puckID string) (*Capture, error) {
	raw, err := s.kv.Get(ctx, key(puckID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	var capture Capture
	if err := json.Unmarshal(raw, &capture); err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	return &capture, nil
}

// Delete drops the puck's capture ahead of its expiry.
func (s *Store) Delete(ctx context.Context, puckID string) error {
	return s.kv.Delete(ctx, key(puckID))
}
