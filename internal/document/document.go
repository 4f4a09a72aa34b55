// Package document is the open-document store: it tracks each open
// buffer's text, version, and most recent parse, serializing edits so
// that a parse started against a stale generation never overwrites a
// newer one.
package document

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/plsc/internal/debug"
	"github.com/standardbeagle/plsc/internal/encoding"
	"github.com/standardbeagle/plsc/internal/errors"
	"github.com/standardbeagle/plsc/internal/incremental"
	"github.com/standardbeagle/plsc/internal/parser"
	"github.com/standardbeagle/plsc/internal/types"
)

type entry struct {
	mu         sync.RWMutex
	snapshot   types.DocumentSnapshot
	generation uint32
	hash       uint64
}

// Store holds every open document, keyed by URI.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*entry
}

// NewStore returns an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*entry)}
}

// DidOpen registers a newly opened document and parses it synchronously;
// an editor's first view of a file should never race its own open.
func (s *Store) DidOpen(uri, text string, version int32) types.DocumentSnapshot {
	e := &entry{generation: 1}
	snap := s.parseInto(uri, text, version, 1)
	e.snapshot = snap
	e.hash = contentHash(text)

	s.mu.Lock()
	s.docs[uri] = e
	s.mu.Unlock()

	debug.LogDocument("opened %s at version %d (%s)", uri, version, summarizeErrors(snap))
	return snap
}

// DidChange applies a batch of content changes, reparses, and commits
// the result only if no newer change arrived while parsing ran. It
// returns the new snapshot, or the currently committed one (plus a
// StaleResultError) if this call lost the race.
func (s *Store) DidChange(ctx context.Context, uri string, changes []types.ContentChangeEvent, version int32) (types.DocumentSnapshot, error) {
	s.mu.RLock()
	e, ok := s.docs[uri]
	s.mu.RUnlock()
	if !ok {
		return types.DocumentSnapshot{}, &errors.IndexStateMismatchError{Operation: "did_change", State: "document not open"}
	}

	e.mu.Lock()
	prior := e.snapshot
	newText := prior.Text
	lineStarts := computeLineStarts(newText)
	var edit *types.Edit
	if len(changes) == 1 && changes[0].Range != nil {
		edit = editFor(prior.Text, lineStarts, changes[0])
	}
	for _, ch := range changes {
		newText, lineStarts = applyChange(newText, lineStarts, ch)
	}
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	select {
	case <-ctx.Done():
		return prior, ctx.Err()
	default:
	}

	var snap types.DocumentSnapshot
	if edit != nil && prior.AST != nil {
		snap = s.reparseInto(uri, prior, *edit, newText, version, gen)
	} else {
		snap = s.parseInto(uri, newText, version, gen)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		debug.LogDocument("discarding stale parse for %s: generation %d superseded by %d", uri, gen, e.generation)
		return e.snapshot, &errors.StaleResultError{URI: uri, SpawnGeneration: uint64(gen), CurrentGeneration: uint64(e.generation)}
	}
	e.snapshot = snap
	e.hash = contentHash(newText)
	return snap, nil
}

// DidClose forgets a document entirely.
func (s *Store) DidClose(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
	debug.LogDocument("closed %s", uri)
}

// Get returns the current snapshot for uri, if open.
func (s *Store) Get(uri string) (types.DocumentSnapshot, bool) {
	s.mu.RLock()
	e, ok := s.docs[uri]
	s.mu.RUnlock()
	if !ok {
		return types.DocumentSnapshot{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot, true
}

// PositionAt converts a byte offset in uri's current text into an LSP
// Position. Returns false if uri is not open.
func (s *Store) PositionAt(uri string, offset int) (types.Position, bool) {
	snap, ok := s.Get(uri)
	if !ok {
		return types.Position{}, false
	}
	return encoding.OffsetToPosition(snap.Text, snap.LineStarts, offset), true
}

// URIs returns every currently open document URI.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	return uris
}

// editFor converts a single-range content change into the byte-offset
// Edit the incremental engine expects. Returns nil if the range's
// positions cannot be resolved against the prior text.
func editFor(prevText string, lineStarts []int, ch types.ContentChangeEvent) *types.Edit {
	if ch.Range == nil {
		return nil
	}
	oldStart := positionToByteOffset(prevText, lineStarts, ch.Range.Start)
	oldEnd := positionToByteOffset(prevText, lineStarts, ch.Range.End)
	if oldStart > oldEnd {
		return nil
	}
	return &types.Edit{
		OldByteStart: oldStart,
		OldByteEnd:   oldEnd,
		NewByteEnd:   oldStart + len(ch.Text),
		OldStartPos:  ch.Range.Start,
		OldEndPos:    ch.Range.End,
	}
}

// reparseInto runs the incremental engine against the document's prior
// tree and falls back to a full parse internally whenever reuse cannot
// be proven safe; either way the result is generation-stamped the same
// way parseInto's is.
func (s *Store) reparseInto(uri string, prior types.DocumentSnapshot, edit types.Edit, text string, version int32, generation uint32) types.DocumentSnapshot {
	result, metrics := incremental.Reparse(prior.AST, []byte(prior.Text), edit, []byte(text))
	debug.LogDocument("reparsed %s: reused=%d reparsed=%d elapsed=%dns", uri, metrics.NodesReused, metrics.NodesReparsed, metrics.ElapsedNanos)
	return types.DocumentSnapshot{
		URI:         uri,
		Text:        text,
		Version:     version,
		Generation:  generation,
		AST:         result.Tree,
		ParseErrors: result.Errors,
		LineStarts:  computeLineStarts(text),
	}
}

func (s *Store) parseInto(uri, text string, version int32, generation uint32) types.DocumentSnapshot {
	result, err := parser.Parse([]byte(text))
	if err != nil {
		debug.LogDocument("parse collapsed for %s: %v", uri, err)
		result = &types.ParseResult{}
	}
	return types.DocumentSnapshot{
		URI:         uri,
		Text:        text,
		Version:     version,
		Generation:  generation,
		AST:         result.Tree,
		ParseErrors: result.Errors,
		LineStarts:  computeLineStarts(text),
	}
}

func summarizeErrors(snap types.DocumentSnapshot) string {
	if len(snap.ParseErrors) == 0 {
		return "clean parse"
	}
	return "parse errors present"
}

func contentHash(text string) uint64 {
	return xxhash.Sum64String(text)
}

// computeLineStarts returns the byte offset of the first byte of each
// line, including an implicit line 0 starting at offset 0.
func computeLineStarts(text string) []int {
	return encoding.LineStarts(text)
}

// positionToByteOffset converts an LSP Position (line, UTF-16 code
// units) into a byte offset into text, using lineStarts to locate the
// line and decoding UTF-16 code units across the line's UTF-8 bytes.
func positionToByteOffset(text string, lineStarts []int, pos types.Position) int {
	return encoding.PositionToOffset(text, lineStarts, pos)
}

// applyChange applies one content change to text, returning the new
// text and its recomputed line starts. A nil Range means a full
// document replace.
func applyChange(text string, lineStarts []int, change types.ContentChangeEvent) (string, []int) {
	if change.Range == nil {
		return change.Text, computeLineStarts(change.Text)
	}
	start := positionToByteOffset(text, lineStarts, change.Range.Start)
	end := positionToByteOffset(text, lineStarts, change.Range.End)
	if start > len(text) {
		start = len(text)
	}
	if end > len(text) {
		end = len(text)
	}
	if end < start {
		end = start
	}
	newText := text[:start] + change.Text + text[end:]
	return newText, computeLineStarts(newText)
}
