package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGALockIsConservativeOnNotebookAndInlineValues(t *testing.T) {
	prod := Production()
	lock := GALock()

	assert.True(t, prod.InlineValues)
	assert.False(t, lock.InlineValues)

	assert.True(t, prod.NotebookDocumentSync)
	assert.False(t, lock.NotebookDocumentSync)

	assert.True(t, prod.NotebookCellExecution)
	assert.False(t, lock.NotebookCellExecution)

	// Every other flag matches production.
	lock.InlineValues = prod.InlineValues
	lock.NotebookDocumentSync = prod.NotebookDocumentSync
	lock.NotebookCellExecution = prod.NotebookCellExecution
	lock.Formatting = prod.Formatting
	lock.RangeFormatting = prod.RangeFormatting
	assert.Equal(t, prod, lock)
}

func TestAllEnablesFormatting(t *testing.T) {
	all := All()
	assert.True(t, all.Formatting)
	assert.True(t, all.RangeFormatting)
}

func TestForFlagsAlwaysPopulatesCompletionAndSignatureHelp(t *testing.T) {
	m := ForFlags(Flags{})
	require.NotNil(t, m.Completion)
	assert.Equal(t, []string{"$", "@", "%", "->"}, m.Completion.TriggerCharacters)
	require.NotNil(t, m.SignatureHelp)
	assert.Equal(t, []string{"("}, m.SignatureHelp.TriggerCharacters)
	assert.Nil(t, m.SemanticTokens)
	assert.Nil(t, m.CodeActions)
	assert.Empty(t, m.ExecuteCommands)
}

func TestForFlagsGatesSemanticTokensAndCodeActions(t *testing.T) {
	f := Flags{SemanticTokens: true, CodeActions: true, SourceOrganizeImports: true, ExecuteCommand: true}
	m := ForFlags(f)

	require.NotNil(t, m.SemanticTokens)
	assert.Contains(t, m.SemanticTokens.TokenTypes, "function")
	assert.Contains(t, m.SemanticTokens.TokenModifiers, "readonly")

	require.NotNil(t, m.CodeActions)
	assert.Contains(t, m.CodeActions.Kinds, "source.organizeImports")

	assert.ElementsMatch(t, []string{
		"perl.runTests", "perl.runFile", "perl.runTestSub", "perl.debugTests", "perl.runCritic",
	}, m.ExecuteCommands)
}

func TestForFlagsOmitsSourceOrganizeImportsKindWhenFlagOff(t *testing.T) {
	m := ForFlags(Flags{CodeActions: true})
	require.NotNil(t, m.CodeActions)
	assert.NotContains(t, m.CodeActions.Kinds, "source.organizeImports")
}

func TestSchemaDescribesManifest(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)
	require.NotNil(t, schema)
}
