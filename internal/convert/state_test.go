package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-extract/internal/document"
	"github.com/thywilljoshua/pdf-extract/internal/extract"
)

func TestMergeAddsFieldsWithoutMutating(t *testing.T) {
	base := newState(document.Source{Path: "a.pdf", Pages: 1})

	withText, err := base.merge(State{Text: Set("hello")})
	require.NoError(t, err)
	assert.False(t, base.Text.IsSet(), "merge returns a new state")

	got, ok := withText.Text.Get()
	assert.True(t, ok)
	assert.Equal(t, "hello", got)

	withTables, err := withText.merge(State{Tables: Set([]extract.TableRecord{})})
	require.NoError(t, err)
	assert.True(t, withTables.Tables.IsSet(), "an empty result is still a result")
	assert.True(t, withTables.Text.IsSet(), "later deltas never clear earlier fields")
}

func TestMergeRejectsSecondWrite(t *testing.T) {
	st, err := newState(document.Source{}).merge(State{Text: Set("first")})
	require.NoError(t, err)

	_, err = st.merge(State{Text: Set("second")})
	require.Error(t, err)
	assert.Equal(t, "first", st.Text.Value())
}

func TestCombinePromptRendersSentinels(t *testing.T) {
	prompt := CombinePrompt(newState(document.Source{}))

	assert.Equal(t, "I have extracted the following elements from a PDF:\n\n"+
		"TEXT:\nNo text extracted\n\n"+
		"TABLES:\nNo tables extracted\n\n"+
		"IMAGES:\nNo images extracted\n\n"+
		"Please combine these elements into a well-structured document, maintaining the logical flow.\n"+
		"Place tables and images near related text. Use markdown formatting.\n", prompt)
}

func TestCombinePromptListsRecords(t *testing.T) {
	st := State{
		Text:   Set("Body"),
		Tables: Set([]extract.TableRecord{{Page: 1, Markdown: "| a |"}, {Page: 2, Markdown: "| b |"}}),
		Images: Set([]extract.ImageRecord{{Page: 1, Description: "logo"}}),
	}
	prompt := CombinePrompt(st)

	assert.Contains(t, prompt, "TEXT:\nBody\n\n")
	assert.Contains(t, prompt, "TABLES:\nTable 1:\n| a |\n\nTable 2:\n| b |\n\n")
	assert.Contains(t, prompt, "IMAGES:\nImage 1: logo\n\n")
	assert.NotContains(t, prompt, NoTablesExtracted)
	assert.NotContains(t, prompt, NoImagesExtracted)
}

func TestUniqueSorted(t *testing.T) {
	assert.Equal(t, []int{1, 2, 5}, uniqueSorted([]int{5, 2, 2, 1, 5}))
	assert.Equal(t, []int{}, uniqueSorted([]int{}))
}
