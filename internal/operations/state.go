package operations

import (
	"sync"
	"time"

	"scadapulse/pkg/contracts/domain"
)

// State is the data handed from stage to stage during one run.
type State struct {
	RunID     string
	Day       time.Time
	Units     []string
	Mode      string
	Documents bool

	Readings  []domain.Reading
	Summary   domain.DaySummary
	Forecast  domain.ForecastResult
	Narrative string

	// Artifacts lists every file written by the run, in write order.
	Artifacts []string
	// Published lists the object keys of uploaded artifacts.
	Published []string

	mu       sync.Mutex
	metadata map[string]map[string]interface{}
}

// NewState creates the state of a run for day.
func NewState(runID string, day time.Time, units []string, mode string) *State {
	return &State{
		RunID:    runID,
		Day:      day,
		Units:    units,
		Mode:     mode,
		Forecast: domain.NewForecastResult(),
		metadata: make(map[string]map[string]interface{}),
	}
}

// DayString returns the run day as yyyy-mm-dd.
func (s *State) DayString() string {
	return s.Day.Format(domain.DayLayout)
}

// AddArtifacts records written files.
func (s *State) AddArtifacts(paths ...string) {
	s.Artifacts = append(s.Artifacts, paths...)
}

// SetMetadata attaches a value to the stage's snapshot.
func (s *State) SetMetadata(stageID, key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metadata == nil {
		s.metadata = make(map[string]map[string]interface{})
	}
	if s.metadata[stageID] == nil {
		s.metadata[stageID] = make(map[string]interface{})
	}
	s.metadata[stageID][key] = value
}

// Metadata returns a copy of the values set for stageID.
func (s *State) Metadata(stageID string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.metadata[stageID]
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
