package trace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Level controls the verbosity of round tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelRounds captures per-round allocation records.
	LevelRounds Level = "rounds"
	// LevelOutcomes additionally captures every sampled outcome.
	LevelOutcomes Level = "outcomes"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:     true,
	LevelRounds:   true,
	LevelOutcomes: true,
	"":            true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace
// level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// AllocationTrace collects decision records across a closed-loop run. Each
// trace is stamped with a fresh run ID so saved traces from repeated runs
// stay distinguishable.
type AllocationTrace struct {
	RunID    string          `json:"run_id"`
	Level    Level           `json:"level"`
	Rounds   []RoundRecord   `json:"rounds"`
	Outcomes []OutcomeRecord `json:"outcomes,omitempty"`
}

// NewAllocationTrace creates an AllocationTrace ready for recording.
func NewAllocationTrace(level Level) *AllocationTrace {
	if level == "" {
		level = LevelNone
	}
	return &AllocationTrace{
		RunID:  uuid.NewString(),
		Level:  level,
		Rounds: make([]RoundRecord, 0),
	}
}

// RecordRound appends a round record. No-op below LevelRounds.
func (at *AllocationTrace) RecordRound(record RoundRecord) {
	if at.Level == LevelNone {
		return
	}
	at.Rounds = append(at.Rounds, record)
}

// RecordOutcome appends an outcome record. No-op below LevelOutcomes.
func (at *AllocationTrace) RecordOutcome(record OutcomeRecord) {
	if at.Level != LevelOutcomes {
		return
	}
	at.Outcomes = append(at.Outcomes, record)
}

// Save writes the trace as indented JSON to path.
func (at *AllocationTrace) Save(path string) error {
	data, err := json.MarshalIndent(at, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// Load reads a trace previously written by Save.
func Load(path string) (*AllocationTrace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	var at AllocationTrace
	if err := json.Unmarshal(data, &at); err != nil {
		return nil, fmt.Errorf("parsing trace: %w", err)
	}
	return &at, nil
}
