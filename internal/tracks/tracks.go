// Package tracks maintains the per-source rolling position history derived
// from incoming detections.
package tracks

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxPositions caps each track's position history; oldest entries are
// dropped once the cap is reached.
const maxPositions = 1000

// Position is one observed location in a track's history.
type Position struct {
	Lat       float64
	Lon       float64
	Alt       *float64
	Timestamp time.Time
}

// Track is the derived per-source state the spec calls for: a stable
// track_id plus an ordered position history and optional classification.
type Track struct {
	TrackID        string
	SourceID       string
	Positions      []Position
	Classification string
	Confidence     float64
}

// Store holds one Track per source_id. It is the single writer named by the
// coordinator; callers needing a consistent view use Snapshot, which never
// aliases internal state.
type Store struct {
	mu     sync.RWMutex
	tracks map[string]*Track
}

// NewStore constructs an empty track store.
func NewStore() *Store {
	return &Store{tracks: make(map[string]*Track)}
}

// Append records a new position for sourceID, lazily creating the track on
// first use, and returns the resulting track_id.
func (s *Store) Append(sourceID string, pos Position) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.tracks[sourceID]
	if !ok {
		track = &Track{TrackID: uuid.NewString(), SourceID: sourceID}
		s.tracks[sourceID] = track
	}

	track.Positions = append(track.Positions, pos)
	if len(track.Positions) > maxPositions {
		track.Positions = track.Positions[len(track.Positions)-maxPositions:]
	}
	return track.TrackID
}

// Get returns a deep copy of the track for sourceID, or false if none exists.
func (s *Store) Get(sourceID string) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	track, ok := s.tracks[sourceID]
	if !ok {
		return Track{}, false
	}
	return copyTrack(track), true
}

// Snapshot returns a read-only copy of every track, safe to range over
// without holding the store's lock.
func (s *Store) Snapshot() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, copyTrack(t))
	}
	return out
}

func copyTrack(t *Track) Track {
	positions := make([]Position, len(t.Positions))
	copy(positions, t.Positions)
	return Track{
		TrackID:        t.TrackID,
		SourceID:       t.SourceID,
		Positions:      positions,
		Classification: t.Classification,
		Confidence:     t.Confidence,
	}
}
