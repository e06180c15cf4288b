package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/pad"
)

// TraceSnapshot is the golden-file form of a scenario trace.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap flattens the snapshot into canonical JSON values. Axis
// values widen to int64 so the encoder accepts them.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type":  event.Type,
			"tick":  event.Tick,
			"at_ms": event.AtMs,
		}
		if event.SequenceID != "" {
			eventMap["sequence_id"] = event.SequenceID
		}
		if event.Macro != "" {
			eventMap["macro"] = event.Macro
		}
		if event.Gamepad != nil {
			g := event.Gamepad
			eventMap["buttons"] = pad.FormatButtons(g.Buttons)
			eventMap["lt"] = int64(g.LeftTrigger)
			eventMap["rt"] = int64(g.RightTrigger)
			eventMap["lx"] = int64(g.ThumbLX)
			eventMap["ly"] = int64(g.ThumbLY)
			eventMap["rx"] = int64(g.ThumbRX)
			eventMap["ry"] = int64(g.ThumbRY)
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	return effect.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden runs scenario and checks its trace against
// testdata/golden/<name>.golden, failing t on a mismatch. Regenerate with
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden checks an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
