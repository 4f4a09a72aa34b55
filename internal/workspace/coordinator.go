// Package workspace is the cross-file symbol index coordinator: it
// tracks each indexed file's symbol set, exposes find_symbols lookup
// across the whole workspace, and runs the Uninitialized ->
// Building{Idle|Scanning} -> Ready state machine that lets a host track
// whether a parse storm (a burst of concurrent file changes) has settled.
package workspace

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/plsc/internal/debug"
	"github.com/standardbeagle/plsc/internal/encoding"
	"github.com/standardbeagle/plsc/internal/parser"
	"github.com/standardbeagle/plsc/internal/symbols"
	"github.com/standardbeagle/plsc/internal/types"
)

// Coordinator owns the workspace-wide index: one symbol set per URI, the
// state machine, and the set of URIs with in-flight changes.
type Coordinator struct {
	mu    sync.RWMutex
	index *types.WorkspaceIndex

	// contentHash stores each file's last indexed content hash: re-indexing a
	// file whose content hash hasn't changed skips the parse/extract
	// pass entirely. Keyed by uri, so a cache entry is only ever
	// compared against its own file's previous hash.
	contentHash map[string]uint64

	// text holds each indexed file's source, so WorkspaceSymbol.Range
	// can be computed in UTF-16 LSP positions on demand rather than
	// every Symbol carrying a redundant cached Position.
	text map[string]string
}

// New returns a coordinator in the Uninitialized state.
func New() *Coordinator {
	return &Coordinator{
		index:       types.NewWorkspaceIndex(),
		contentHash: make(map[string]uint64),
		text:        make(map[string]string),
	}
}

// IndexFile parses text, extracts its symbols, and replaces uri's entry
// in the workspace index. A parse failure leaves the previous entry
// intact and is logged rather than propagated.
func (c *Coordinator) IndexFile(uri, text string) {
	hash := xxhash.Sum64String(text)

	c.mu.Lock()
	if prevHash, ok := c.contentHash[uri]; ok && prevHash == hash {
		c.mu.Unlock()
		debug.LogWorkspace("skipping %s: content unchanged", uri)
		c.NotifyParseComplete(uri)
		return
	}
	c.mu.Unlock()

	result, err := parser.Parse([]byte(text))
	if err != nil || result.Tree == nil {
		debug.LogWorkspace("index_file failed for %s, keeping previous entry: %v", uri, err)
		c.NotifyParseComplete(uri)
		return
	}
	table := symbols.Extract(result.Tree)

	syms := flattenSymbols(table)

	c.mu.Lock()
	if c.index.State.Kind == types.IndexUninitialized {
		c.index.State = types.IndexState{Kind: types.IndexBuilding, Phase: types.PhaseIdle}
	}
	c.index.Files[uri] = syms
	c.contentHash[uri] = hash
	c.text[uri] = text
	c.index.State.FilesSeen++
	c.index.State.SymbolsSeen += len(syms)
	c.mu.Unlock()

	debug.LogWorkspace("indexed %s: %d symbols", uri, len(syms))
	c.NotifyParseComplete(uri)
}

// ClearFile drops uri's entry entirely, e.g. on file deletion.
func (c *Coordinator) ClearFile(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.index.Files, uri)
	delete(c.contentHash, uri)
	delete(c.text, uri)
}

// NotifyChange marks uri as having a pending, not-yet-indexed change and
// transitions Building{Idle} -> Building{Scanning}, or Ready ->
// Building{Scanning} if the coordinator had already settled.
func (c *Coordinator) NotifyChange(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index.PendingChanges[uri] = struct{}{}

	switch c.index.State.Kind {
	case types.IndexUninitialized:
		c.index.State = types.IndexState{Kind: types.IndexBuilding, Phase: types.PhaseScanning}
	case types.IndexBuilding:
		c.index.State.Phase = types.PhaseScanning
	case types.IndexReady:
		c.index.State = types.IndexState{Kind: types.IndexBuilding, Phase: types.PhaseScanning}
	}
}

// NotifyParseComplete clears uri from the pending-change set. If that
// empties the set and the coordinator is Building, it drops back to
// Building{Idle} (a host decides when to call TransitionToReady after a
// quiescent scan; NotifyParseComplete alone never reaches Ready).
func (c *Coordinator) NotifyParseComplete(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.index.PendingChanges, uri)

	if c.index.State.Kind == types.IndexBuilding && len(c.index.PendingChanges) == 0 {
		c.index.State.Phase = types.PhaseIdle
	}
}

// TransitionToReady moves a quiescent Building state to Ready{file_count,
// symbol_count}. Callers should only invoke this once pending_changes is
// empty; it is a no-op from any state other than Building.
func (c *Coordinator) TransitionToReady() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index.State.Kind != types.IndexBuilding {
		return
	}
	c.index.State = types.IndexState{
		Kind:        types.IndexReady,
		FileCount:   len(c.index.Files),
		SymbolCount: c.totalSymbols(),
	}
}

// State returns the coordinator's current state machine value.
func (c *Coordinator) State() types.IndexState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.State
}

// PendingChanges returns a snapshot of the currently pending URIs.
func (c *Coordinator) PendingChanges() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.index.PendingChanges))
	for uri := range c.index.PendingChanges {
		out = append(out, uri)
	}
	return out
}

// AllSymbols returns every symbol in the index, across all files,
// unordered. Unlike FindSymbols it requires no query and works
// regardless of state, for hosts that want a full dump (e.g. the plsc
// CLI's index --verbose).
func (c *Coordinator) AllSymbols() []types.WorkspaceSymbol {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []types.WorkspaceSymbol
	for uri, syms := range c.index.Files {
		for _, sym := range syms {
			out = append(out, c.toWorkspaceSymbol(uri, sym))
		}
	}
	return out
}

// toWorkspaceSymbol attaches uri's UTF-16 range for sym.Location and
// normalizes sym.Container (Perl's legacy `'` package separator
// rewritten to `::`) into ContainerName. Must be called with c.mu held
// for reading.
func (c *Coordinator) toWorkspaceSymbol(uri string, sym types.Symbol) types.WorkspaceSymbol {
	text := c.text[uri]
	lineStarts := encoding.LineStarts(text)
	return types.WorkspaceSymbol{
		Symbol: sym,
		URI:    uri,
		Range: types.Range{
			Start: encoding.OffsetToPosition(text, lineStarts, sym.Location.Start),
			End:   encoding.OffsetToPosition(text, lineStarts, sym.Location.End),
		},
		ContainerName: normalizeContainer(sym.Container),
		ID:            symbolID(sym),
	}
}

// symbolID packs a symbol's scope and declaration offset into a single
// uint64 and renders it in base 63, giving callers a short opaque token
// instead of a raw location pair. It is a function of (ScopeID,
// Location.Start) only, so it is stable across calls for the same
// generation but not across a reparse that moves the declaration.
func symbolID(sym types.Symbol) string {
	packed := encoding.PackUint32Pair(uint32(sym.Location.Start), uint32(sym.ScopeID))
	return encoding.Base63Encode(packed)
}

// normalizeContainer rewrites Perl's legacy `'` package separator
// (`Foo'Bar`) to the modern `::` form.
func normalizeContainer(container string) string {
	return strings.ReplaceAll(container, "'", "::")
}

// totalSymbols must be called with c.mu held.
func (c *Coordinator) totalSymbols() int {
	n := 0
	for _, syms := range c.index.Files {
		n += len(syms)
	}
	return n
}

func flattenSymbols(table *types.SymbolTable) []types.Symbol {
	var out []types.Symbol
	for _, syms := range table.Symbols {
		out = append(out, syms...)
	}
	return out
}
