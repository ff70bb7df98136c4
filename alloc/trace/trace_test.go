package trace

import (
	"path/filepath"
	"testing"
)

func TestAllocationTrace_RecordRound_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for rounds
	at := NewAllocationTrace(LevelRounds)

	// WHEN a round record is recorded
	at.RecordRound(RoundRecord{
		Round:  0,
		Budget: 18,
		Keys:   []string{"a", "b"},
		Probs:  []float64{0.3, 0.6},
		Alloc:  []int32{10, 8},
	})

	// THEN the trace contains one round record with correct data
	if len(at.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(at.Rounds))
	}
	if at.Rounds[0].Budget != 18 {
		t.Errorf("expected budget 18, got %d", at.Rounds[0].Budget)
	}
}

func TestAllocationTrace_LevelNone_DropsRecords(t *testing.T) {
	at := NewAllocationTrace(LevelNone)
	at.RecordRound(RoundRecord{Round: 0})
	at.RecordOutcome(OutcomeRecord{Round: 0, Key: "a", Success: true})
	if len(at.Rounds) != 0 || len(at.Outcomes) != 0 {
		t.Error("LevelNone must not retain records")
	}
}

func TestAllocationTrace_LevelRounds_DropsOutcomes(t *testing.T) {
	at := NewAllocationTrace(LevelRounds)
	at.RecordOutcome(OutcomeRecord{Round: 0, Key: "a", Success: true})
	if len(at.Outcomes) != 0 {
		t.Error("LevelRounds must not retain outcome records")
	}
}

func TestAllocationTrace_FreshRunIDs(t *testing.T) {
	a := NewAllocationTrace(LevelRounds)
	b := NewAllocationTrace(LevelRounds)
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("expected distinct non-empty run IDs, got %q and %q", a.RunID, b.RunID)
	}
}

func TestAllocationTrace_SaveLoadRoundTrip(t *testing.T) {
	at := NewAllocationTrace(LevelOutcomes)
	at.RecordRound(RoundRecord{Round: 0, Budget: 6, Keys: []string{"a"}, Probs: []float64{0.5}, Alloc: []int32{6}})
	at.RecordOutcome(OutcomeRecord{Round: 0, Key: "a", Success: true})

	path := filepath.Join(t.TempDir(), "trace.json")
	if err := at.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.RunID != at.RunID {
		t.Errorf("run ID mismatch: %q vs %q", loaded.RunID, at.RunID)
	}
	if len(loaded.Rounds) != 1 || loaded.Rounds[0].Alloc[0] != 6 {
		t.Errorf("round records not preserved: %+v", loaded.Rounds)
	}
	if len(loaded.Outcomes) != 1 || !loaded.Outcomes[0].Success {
		t.Errorf("outcome records not preserved: %+v", loaded.Outcomes)
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, level := range []string{"", "none", "rounds", "outcomes"} {
		if !IsValidLevel(level) {
			t.Errorf("expected %q to be valid", level)
		}
	}
	if IsValidLevel("verbose") {
		t.Error("expected unknown level to be invalid")
	}
}
