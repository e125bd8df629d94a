package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

func TestScanThoughts(t *testing.T) {
	// A realistic stream: data frames, keep-alive comments, blank
	// separators, and one frame of unknown shape.
	stream := strings.Join([]string{
		`data: {"timestamp": 1, "type": "understanding", "message": "Reading the requirement"}`,
		``,
		`: ping`,
		``,
		`data: {"timestamp": 2, "type": "decomposing", "message": "Breaking into tasks", "progress": 0.7}`,
		``,
		`data: not json at all`,
		``,
		`data: {"timestamp": 3, "type": "complete", "message": "Done", "progress": 1.0}`,
		``,
	}, "\n")

	var events []datatypes.ThoughtEvent
	err := scanThoughts(strings.NewReader(stream), func(ev datatypes.ThoughtEvent) bool {
		events = append(events, ev)
		return true
	})
	if err != nil {
		t.Fatalf("scanThoughts failed: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].Type != datatypes.PhaseUnderstanding {
		t.Errorf("Expected understanding first, got %s", events[0].Type)
	}
	if events[1].Progress == nil || *events[1].Progress != 0.7 {
		t.Errorf("Expected progress 0.7 on the second event, got %v", events[1].Progress)
	}
	if events[2].Type != datatypes.PhaseComplete {
		t.Errorf("Expected complete last, got %s", events[2].Type)
	}
}

func TestScanThoughtsStopsWhenAsked(t *testing.T) {
	stream := strings.Repeat(`data: {"type": "analyzing", "message": "m"}`+"\n\n", 5)

	count := 0
	err := scanThoughts(strings.NewReader(stream), func(datatypes.ThoughtEvent) bool {
		count++
		return count < 2
	})
	if err != nil {
		t.Fatalf("scanThoughts failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected the callback to stop the scan at 2, got %d", count)
	}
}

func TestLoadTasksFileBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := `[{"id": "t1", "title": "Design schema", "type": "design", "priority": "high"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tasks, err := loadTasksFile(path)
	if err != nil {
		t.Fatalf("loadTasksFile failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Errorf("Expected one task t1, got %+v", tasks)
	}
}

func TestLoadTasksFileAnalyzeOutput(t *testing.T) {
	// The output of "analyze --json" should validate directly.
	path := filepath.Join(t.TempDir(), "analysis.json")
	content := `{"request_id": "x", "intent_type": "feature_request",
		"tasks": [{"id": "t1", "title": "A"}, {"id": "t2", "title": "B", "dependencies": ["t1"]}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tasks, err := loadTasksFile(path)
	if err != nil {
		t.Fatalf("loadTasksFile failed: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Dependencies[0] != "t1" {
		t.Errorf("Expected two tasks with a dependency, got %+v", tasks)
	}
}

func TestLoadTasksFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadTasksFile(path); err == nil {
		t.Error("Expected an error for malformed input")
	}
}

func TestWatchModelTracksPhases(t *testing.T) {
	m := newWatchModel("a3bb189e-8bf9-4888-9912-ace4e6543002", nil)

	progress := 0.5
	next, _ := m.Update(thoughtMsg{event: datatypes.ThoughtEvent{
		Type:     datatypes.PhaseAnalyzing,
		Message:  "Looking at the requirement",
		Progress: &progress,
	}})
	m = next.(watchModel)

	if m.phase != datatypes.PhaseAnalyzing {
		t.Errorf("Expected phase analyzing, got %s", m.phase)
	}
	if m.percent != 0.5 {
		t.Errorf("Expected percent 0.5, got %f", m.percent)
	}

	// A new phase pushes the previous one into the history trail.
	next, _ = m.Update(thoughtMsg{event: datatypes.ThoughtEvent{
		Type:    datatypes.PhaseComplete,
		Message: "Done",
	}})
	m = next.(watchModel)

	if len(m.history) != 1 {
		t.Fatalf("Expected one history line, got %d", len(m.history))
	}
	if !strings.Contains(m.history[0], "Looking at the requirement") {
		t.Errorf("History should carry the finished message, got %q", m.history[0])
	}

	next, _ = m.Update(streamDoneMsg{})
	m = next.(watchModel)
	if !m.done {
		t.Error("Expected done after the stream closed")
	}
}
