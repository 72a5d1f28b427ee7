package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/thywilljoshua/pdf-extract/internal/ai"
	"github.com/thywilljoshua/pdf-extract/internal/common"
)

const (
	CombineSystemPrompt = "You are a PDF content organizer. Your task is to combine text, tables, and images into a well-structured document."

	NoTextExtracted   = "No text extracted"
	NoTablesExtracted = "No tables extracted"
	NoImagesExtracted = "No images extracted"
)

// Combiner merges the partial results with one model call and returns
// the model output verbatim.
type Combiner struct {
	Model ai.Model
}

func (c Combiner) Combine(ctx context.Context, st State) (string, error) {
	res, err := c.Model.Complete(ctx, CombineSystemPrompt, CombinePrompt(st))
	if err != nil {
		return "", common.CombinationFailure(err)
	}
	return res.Text, nil
}

// CombinePrompt renders the merge instruction for st.
func CombinePrompt(st State) string {
	text := st.Text.Value()
	if text == "" {
		text = NoTextExtracted
	}

	var tables strings.Builder
	for i, t := range st.Tables.Value() {
		fmt.Fprintf(&tables, "Table %d:\n%s\n\n", i+1, t.Markdown)
	}
	if tables.Len() == 0 {
		tables.WriteString(NoTablesExtracted)
	}

	var images strings.Builder
	for i, img := range st.Images.Value() {
		fmt.Fprintf(&images, "Image %d: %s\n\n", i+1, img.Description)
	}
	if images.Len() == 0 {
		images.WriteString(NoImagesExtracted)
	}

	return "I have extracted the following elements from a PDF:\n\n" +
		"TEXT:\n" + text + "\n\n" +
		"TABLES:\n" + tables.String() + "\n\n" +
		"IMAGES:\n" + images.String() + "\n\n" +
		"Please combine these elements into a well-structured document, maintaining the logical flow.\n" +
		"Place tables and images near related text. Use markdown formatting.\n"
}
