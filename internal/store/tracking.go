package store

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/canadaduane/jj-ryu/internal/model"
)

// TrackingVersion is written into every saved tracking file.
const TrackingVersion = 1

const trackingHeader = "# ryu tracking metadata\n# Auto-generated - manual edits may be overwritten\n\n"

// TrackedBookmark records one bookmark that ryu manages.
type TrackedBookmark struct {
	Name      string    `yaml:"name"`
	ChangeID  string    `yaml:"change_id"`
	Remote    string    `yaml:"remote,omitempty"`
	TrackedAt time.Time `yaml:"tracked_at"`
}

// NewTrackedBookmark builds a tracked bookmark stamped with the current time.
func NewTrackedBookmark(name, changeID string) TrackedBookmark {
	return TrackedBookmark{Name: name, ChangeID: changeID, TrackedAt: time.Now().UTC()}
}

// TrackingState is the set of bookmarks ryu manages for a repo.
type TrackingState struct {
	Version   int               `yaml:"version"`
	Bookmarks []TrackedBookmark `yaml:"bookmarks"`
}

// NewTrackingState returns an empty state at the current version.
func NewTrackingState() TrackingState {
	return TrackingState{Version: TrackingVersion}
}

// Track adds a bookmark, replacing any existing entry with the same name.
func (s *TrackingState) Track(b TrackedBookmark) {
	for i, existing := range s.Bookmarks {
		if existing.Name == b.Name {
			s.Bookmarks[i] = b
			return
		}
	}
	s.Bookmarks = append(s.Bookmarks, b)
}

// Untrack removes a bookmark by name. Reports whether it was present.
func (s *TrackingState) Untrack(name string) bool {
	for i, b := range s.Bookmarks {
		if b.Name == name {
			s.Bookmarks = append(s.Bookmarks[:i], s.Bookmarks[i+1:]...)
			return true
		}
	}
	return false
}

// IsTracked reports whether a bookmark name is tracked.
func (s *TrackingState) IsTracked(name string) bool {
	for _, b := range s.Bookmarks {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Names returns tracked bookmark names in insertion order.
func (s *TrackingState) Names() []string {
	names := make([]string, 0, len(s.Bookmarks))
	for _, b := range s.Bookmarks {
		names = append(names, b.Name)
	}
	return names
}

// LoadTracking reads tracking state for a workspace. A missing file yields an
// empty state rather than an error.
func LoadTracking(workspaceRoot string) (TrackingState, error) {
	path := TrackingPath(workspaceRoot)

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewTrackingState(), nil
	}
	if err != nil {
		return TrackingState{}, &model.TrackingError{Message: "failed to read " + path + ": " + err.Error()}
	}

	var state TrackingState
	if err := yaml.Unmarshal(content, &state); err != nil {
		return TrackingState{}, &model.TrackingError{Message: "failed to parse " + path + ": " + err.Error()}
	}
	return state, nil
}

// SaveTracking writes tracking state for a workspace, creating the ryu
// directory if needed.
func SaveTracking(workspaceRoot string, state TrackingState) error {
	state.Version = TrackingVersion
	path := TrackingPath(workspaceRoot)
	if err := writeAtomic(path, state, trackingHeader); err != nil {
		return &model.TrackingError{Message: "failed to write " + path + ": " + err.Error()}
	}
	return nil
}
