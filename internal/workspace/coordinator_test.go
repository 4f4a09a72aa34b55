package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/standardbeagle/plsc/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCoordinatorStartsUninitialized(t *testing.T) {
	c := New()
	assert.Equal(t, types.IndexUninitialized, c.State().Kind)
}

func TestIndexFileTransitionsToBuilding(t *testing.T) {
	c := New()
	c.IndexFile("file:///a.pm", "package A;\nsub hi {}\n1;\n")
	assert.Equal(t, types.IndexBuilding, c.State().Kind)
	assert.NotEmpty(t, c.AllSymbols())
}

func TestTransitionToReadyReportsCounts(t *testing.T) {
	c := New()
	c.IndexFile("file:///a.pm", "package A;\nsub hi {}\n1;\n")
	c.NotifyParseComplete("file:///a.pm")
	c.TransitionToReady()

	state := c.State()
	assert.Equal(t, types.IndexReady, state.Kind)
	assert.Equal(t, 1, state.FileCount)
	assert.Positive(t, state.SymbolCount)
}

func TestClearFileRemovesSymbols(t *testing.T) {
	c := New()
	c.IndexFile("file:///a.pm", "package A;\nsub hi {}\n1;\n")
	assert.NotEmpty(t, c.AllSymbols())

	c.ClearFile("file:///a.pm")
	assert.Empty(t, c.AllSymbols())
}

func TestIndexFileSkipsUnchangedContent(t *testing.T) {
	c := New()
	text := "package A;\nsub hi {}\n1;\n"
	c.IndexFile("file:///a.pm", text)
	before := c.State().SymbolsSeen

	c.IndexFile("file:///a.pm", text)
	after := c.State().SymbolsSeen

	assert.Equal(t, before, after, "re-indexing identical content should not recount symbols")
}

func TestNotifyChangeReopensReadyState(t *testing.T) {
	c := New()
	c.IndexFile("file:///a.pm", "package A;\n1;\n")
	c.NotifyParseComplete("file:///a.pm")
	c.TransitionToReady()
	assert.Equal(t, types.IndexReady, c.State().Kind)

	c.NotifyChange("file:///a.pm")
	assert.Equal(t, types.IndexBuilding, c.State().Kind)
	assert.Contains(t, c.PendingChanges(), "file:///a.pm")
}

func TestAllSymbolsAggregatesAcrossFiles(t *testing.T) {
	c := New()
	c.IndexFile("file:///a.pm", "package A;\nsub hi {}\n1;\n")
	c.IndexFile("file:///b.pm", "package B;\nsub bye {}\n1;\n")

	syms := c.AllSymbols()
	names := make(map[string]bool)
	for _, s := range syms {
		names[s.Symbol.Name] = true
	}
	assert.True(t, names["hi"])
	assert.True(t, names["bye"])
}
