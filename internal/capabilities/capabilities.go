// Package capabilities maps build-time feature flags onto the
// capability record a host advertises at initialization. The core
// never owns a transport; it only decides, for a given set of flags,
// which navigation/edit providers are wired in and what structured
// options (trigger characters, a semantic-token legend, the list of
// executable commands) those providers need.
package capabilities

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// Flags enumerates every navigation/edit feature the server might
// offer.
type Flags struct {
	Completion              bool `json:"completion"`
	Hover                   bool `json:"hover"`
	Definition              bool `json:"definition"`
	TypeDefinition          bool `json:"type_definition"`
	Implementation          bool `json:"implementation"`
	References              bool `json:"references"`
	DocumentSymbol          bool `json:"document_symbol"`
	WorkspaceSymbol         bool `json:"workspace_symbol"`
	InlayHints              bool `json:"inlay_hints"`
	PullDiagnostics         bool `json:"pull_diagnostics"`
	WorkspaceSymbolResolve  bool `json:"workspace_symbol_resolve"`
	SemanticTokens          bool `json:"semantic_tokens"`
	CodeActions             bool `json:"code_actions"`
	ExecuteCommand          bool `json:"execute_command"`
	Rename                  bool `json:"rename"`
	DocumentLinks           bool `json:"document_links"`
	SelectionRanges         bool `json:"selection_ranges"`
	OnTypeFormatting        bool `json:"on_type_formatting"`
	CodeLens                bool `json:"code_lens"`
	CallHierarchy           bool `json:"call_hierarchy"`
	TypeHierarchy           bool `json:"type_hierarchy"`
	LinkedEditing           bool `json:"linked_editing"`
	InlineCompletion        bool `json:"inline_completion"`
	InlineValues            bool `json:"inline_values"`
	NotebookDocumentSync    bool `json:"notebook_document_sync"`
	NotebookCellExecution   bool `json:"notebook_cell_execution"`
	Moniker                 bool `json:"moniker"`
	DocumentColor           bool `json:"document_color"`
	SourceOrganizeImports   bool `json:"source_organize_imports"`
	Formatting              bool `json:"formatting"`
	RangeFormatting         bool `json:"range_formatting"`
	FoldingRange            bool `json:"folding_range"`
}

// Production is the curated default: every flag known to work in a
// shipped build, except the two formatting flags, which a host sets
// only once it has confirmed a perltidy binary is reachable.
func Production() Flags {
	return Flags{
		Completion: true, Hover: true, Definition: true, TypeDefinition: true,
		Implementation: true, References: true, DocumentSymbol: true,
		WorkspaceSymbol: true, InlayHints: true, PullDiagnostics: true,
		WorkspaceSymbolResolve: true, SemanticTokens: true, CodeActions: true,
		ExecuteCommand: true, Rename: true, DocumentLinks: true,
		SelectionRanges: true, OnTypeFormatting: true, CodeLens: true,
		CallHierarchy: true, TypeHierarchy: true, LinkedEditing: true,
		InlineCompletion: true, InlineValues: true, NotebookDocumentSync: true,
		NotebookCellExecution: true, Moniker: true, DocumentColor: true,
		SourceOrganizeImports: true, Formatting: false, RangeFormatting: false,
		FoldingRange: true,
	}
}

// All turns on every flag, for exercising the full manifest shape in
// tests.
func All() Flags {
	f := Production()
	f.Formatting = true
	f.RangeFormatting = true
	return f
}

// GALock is the profile a locked GA build advertises: it turns off the
// three flags that need DAP/notebook-host integration (InlineValues,
// NotebookDocumentSync, NotebookCellExecution) and, unlike Production,
// turns on both formatting flags.
func GALock() Flags {
	f := Production()
	f.InlineValues = false
	f.NotebookDocumentSync = false
	f.NotebookCellExecution = false
	f.Formatting = true
	f.RangeFormatting = true
	return f
}

// SemanticTokensLegend is the fixed token type/modifier vocabulary the
// manifest advertises whenever Flags.SemanticTokens is set.
type SemanticTokensLegend struct {
	TokenTypes     []string `json:"token_types"`
	TokenModifiers []string `json:"token_modifiers"`
}

func defaultLegend() SemanticTokensLegend {
	return SemanticTokensLegend{
		TokenTypes: []string{
			"namespace", "type", "class", "interface", "enum", "enumMember",
			"typeParameter", "function", "method", "property", "macro",
			"variable", "parameter", "keyword", "modifier", "comment",
			"string", "number", "regexp", "operator",
		},
		TokenModifiers: []string{
			"declaration", "definition", "readonly", "static", "deprecated",
			"abstract", "async", "modification", "documentation", "defaultLibrary",
		},
	}
}

// CompletionOptions carries the trigger characters a completion
// provider resumes on: the $, @ and % sigils plus the arrow operator.
type CompletionOptions struct {
	TriggerCharacters []string `json:"trigger_characters"`
}

// SignatureHelpOptions carries the characters that (re)trigger
// signature help inside a call's argument list.
type SignatureHelpOptions struct {
	TriggerCharacters   []string `json:"trigger_characters"`
	RetriggerCharacters []string `json:"retrigger_characters"`
}

// CodeActionOptions lists the action kinds a code-action provider may
// return. It is present only when CodeActions is set; the
// source.organizeImports kind is added only when SourceOrganizeImports
// is set as well.
type CodeActionOptions struct {
	Kinds []string `json:"kinds"`
}

// Manifest is the assembled capability record: Flags plus the
// structured options providers need beyond a plain boolean.
type Manifest struct {
	Flags            Flags                 `json:"flags"`
	Completion       *CompletionOptions     `json:"completion,omitempty"`
	SignatureHelp    *SignatureHelpOptions  `json:"signature_help,omitempty"`
	SemanticTokens   *SemanticTokensLegend  `json:"semantic_tokens,omitempty"`
	CodeActions      *CodeActionOptions     `json:"code_actions,omitempty"`
	ExecuteCommands  []string               `json:"execute_commands,omitempty"`
}

// supportedCommands lists the executeCommand identifiers the core
// actually knows how to run; a host only advertises what it can serve.
var supportedCommands = []string{
	"perl.runTests",
	"perl.runFile",
	"perl.runTestSub",
	"perl.debugTests",
	"perl.runCritic",
}

// ForFlags assembles a Manifest from a set of build flags. Always-on
// providers (completion, signature help) are populated
// unconditionally; every other field is populated only if its gating
// flag is set.
func ForFlags(f Flags) Manifest {
	m := Manifest{
		Flags: f,
		Completion: &CompletionOptions{
			TriggerCharacters: []string{"$", "@", "%", "->"},
		},
		SignatureHelp: &SignatureHelpOptions{
			TriggerCharacters:   []string{"("},
			RetriggerCharacters: []string{","},
		},
	}

	if f.SemanticTokens {
		legend := defaultLegend()
		m.SemanticTokens = &legend
	}

	if f.CodeActions {
		kinds := []string{"quickfix", "refactor.extract"}
		if f.SourceOrganizeImports {
			kinds = append(kinds, "source.organizeImports")
		}
		m.CodeActions = &CodeActionOptions{Kinds: kinds}
	}

	if f.ExecuteCommand {
		m.ExecuteCommands = append([]string(nil), supportedCommands...)
	}

	return m
}

// Schema returns the self-describing JSON Schema for Manifest, so a
// host can validate a serialized capability record without the core
// ever touching a transport.
func Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[Manifest](nil)
}
