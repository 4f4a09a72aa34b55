// Package antipattern recognizes Perl constructs whose meaning cannot
// be resolved statically and turns them into structured diagnostics the
// host can use to degrade features gracefully.
package antipattern

import "github.com/standardbeagle/plsc/internal/types"

// Severity ranks how seriously a detected construct impairs static
// analysis.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Pattern enumerates the seven constructs this detector recognizes.
type Pattern int

const (
	PatternDynamicHeredocDelimiter Pattern = iota
	PatternBeginTimeHeredoc
	PatternFormatHeredoc
	PatternSourceFilter
	PatternRegexCodeBlockHeredoc
	PatternEvalStringHeredoc
	PatternTiedHandleHeredoc
)

// patternRule fixes the severity, message template, and suggested fix
// for one pattern. Severity tracks how much static confidence the
// construct costs: dynamic terminators and source filters are Error,
// most phase/context constructs are Warning, and a tied handle write -
// merely suspicious, not unparseable - is Info.
type patternRule struct {
	severity     Severity
	message      string
	explanation  string
	suggestedFix string
}

var rules = map[Pattern]patternRule{
	PatternDynamicHeredocDelimiter: {
		severity:     SeverityError,
		message:      "heredoc terminator is a runtime expression, not a literal identifier",
		explanation:  "a terminator like <<$var cannot be resolved without executing the program, so the heredoc body's extent is unknown to the parser",
		suggestedFix: "use a literal terminator, e.g. <<END",
	},
	PatternBeginTimeHeredoc: {
		severity:     SeverityError,
		message:      "heredoc appears inside a BEGIN block",
		explanation:  "BEGIN blocks run at compile time, before the rest of the file is parsed, so the heredoc's content may depend on compile-phase side effects this parser cannot observe",
		suggestedFix: "move runtime-dependent heredoc content out of BEGIN",
	},
	PatternFormatHeredoc: {
		severity:     SeverityWarning,
		message:      "heredoc appears inside a format body",
		explanation:  "format bodies are themselves a distinct mini-language; a heredoc nested in one is parsed as opaque format text",
		suggestedFix: "",
	},
	PatternSourceFilter: {
		severity:     SeverityError,
		message:      "source filter module in use",
		explanation:  "a `use Filter::...` declaration rewrites the source text before the compiler sees it, so this file's remaining content cannot be statically parsed with confidence",
		suggestedFix: "",
	},
	PatternRegexCodeBlockHeredoc: {
		severity:     SeverityWarning,
		message:      "heredoc appears inside a (?{ ... }) regex code block",
		explanation:  "regex code blocks execute arbitrary Perl during matching; their contents are parsed as opaque text",
		suggestedFix: "",
	},
	PatternEvalStringHeredoc: {
		severity:     SeverityWarning,
		message:      "heredoc appears inside a string eval",
		explanation:  "the argument to eval \"...\" is itself compiled at runtime; its contents are parsed as an opaque string",
		suggestedFix: "",
	},
	PatternTiedHandleHeredoc: {
		severity:     SeverityInfo,
		message:      "heredoc written to a tied filehandle",
		explanation:  "a tied handle's PRINT method may transform the heredoc's content arbitrarily",
		suggestedFix: "",
	},
}

// Diagnostic is one detected anti-pattern occurrence.
type Diagnostic struct {
	Pattern      Pattern
	Severity     Severity
	Location     types.SourceLocation
	Message      string
	Explanation  string
	SuggestedFix string
	References   []types.SourceLocation
}

// Detect builds the Diagnostic for one occurrence of pattern at loc.
// references lists any related locations (e.g. the enclosing BEGIN
// block, or the expression computing a dynamic terminator).
func Detect(pattern Pattern, loc types.SourceLocation, references ...types.SourceLocation) Diagnostic {
	rule := rules[pattern]
	return Diagnostic{
		Pattern:      pattern,
		Severity:     rule.severity,
		Location:     loc,
		Message:      rule.message,
		Explanation:  rule.explanation,
		SuggestedFix: rule.suggestedFix,
		References:   references,
	}
}
