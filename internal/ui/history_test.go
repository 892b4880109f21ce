package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MoldQuote/internal/model"
)

func projectWithParts(names ...string) model.Project {
	p := model.NewProject()
	for _, n := range names {
		part := model.NewPart(n)
		part.Geometry = model.DirectGeometry(10)
		p.Parts = append(p.Parts, part)
	}
	return p
}

func TestNewHistory(t *testing.T) {
	h := NewHistory()
	if h.maxDepth != defaultMaxDepth {
		t.Errorf("expected maxDepth %d, got %d", defaultMaxDepth, h.maxDepth)
	}
	if h.CanUndo() {
		t.Error("new history should not be undoable")
	}
	if h.CanRedo() {
		t.Error("new history should not be redoable")
	}
}

func TestPushAndUndo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(projectWithParts(), "initial"))

	if !h.CanUndo() {
		t.Fatal("should be able to undo after push")
	}
	assert.Equal(t, "initial", h.UndoLabel())

	current := MakeSnapshot(projectWithParts("Housing"), "current")
	restored, ok := h.Undo(current)
	if !ok {
		t.Fatal("undo should succeed")
	}
	if len(restored.Project.Parts) != 0 {
		t.Errorf("expected 0 parts after undo, got %d", len(restored.Project.Parts))
	}
	if restored.Label != "initial" {
		t.Errorf("expected label 'initial', got %q", restored.Label)
	}
}

func TestUndoRedo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(projectWithParts(), "empty"))
	h.Push(MakeSnapshot(projectWithParts("Housing"), "one part"))
	current := MakeSnapshot(projectWithParts("Housing", "Cover"), "two parts")

	restored, ok := h.Undo(current)
	require.True(t, ok)
	assert.Len(t, restored.Project.Parts, 1)

	require.True(t, h.CanRedo())
	redone, ok := h.Redo(restored)
	require.True(t, ok)
	assert.Len(t, redone.Project.Parts, 2)
	assert.False(t, h.CanRedo())
}

func TestPushClearsRedo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(projectWithParts(), "a"))
	_, _ = h.Undo(MakeSnapshot(projectWithParts("X"), "b"))
	require.True(t, h.CanRedo())

	h.Push(MakeSnapshot(projectWithParts("Y"), "c"))
	assert.False(t, h.CanRedo())
}

func TestMaxDepth(t *testing.T) {
	h := NewHistory()
	h.maxDepth = 3
	for _, label := range []string{"1", "2", "3", "4", "5"} {
		h.Push(MakeSnapshot(projectWithParts(), label))
	}
	assert.Len(t, h.undoStack, 3)
	assert.Equal(t, "3", h.undoStack[0].Label)
}

func TestUndoRedoEmpty(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Undo(Snapshot{}); ok {
		t.Error("undo on empty history should fail")
	}
	if _, ok := h.Redo(Snapshot{}); ok {
		t.Error("redo on empty history should fail")
	}
	assert.Equal(t, "", h.UndoLabel())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	p := projectWithParts("Housing")
	p.Parts[0].WeightG = model.Float(12)
	tool := model.NewTool("T1")
	tool.Configurations = append(tool.Configurations, model.NewToolPartConfiguration(p.Parts[0].ID, 2))
	p.Tools = append(p.Tools, tool)

	snap := MakeSnapshot(p, "before edit")

	*p.Parts[0].WeightG = 99
	p.Parts[0].Name = "Changed"
	p.Tools[0].Configurations[0].Cavities = 8

	assert.Equal(t, 12.0, *snap.Project.Parts[0].WeightG)
	assert.Equal(t, "Housing", snap.Project.Parts[0].Name)
	assert.Equal(t, 2, snap.Project.Tools[0].Configurations[0].Cavities)
}

func TestClear(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(projectWithParts(), "a"))
	_, _ = h.Undo(MakeSnapshot(projectWithParts(), "b"))
	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
