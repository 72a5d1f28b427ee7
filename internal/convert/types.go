package convert

import (
	"github.com/thywilljoshua/pdf-extract/internal/extract"
)

// Config is the configuration surface the pipeline recognises.
type Config struct {
	UseVisionFallback bool
	ExtractTables     bool
	ExtractImages     bool
	SaveImages        bool
	// OutputDirectory receives page images when SaveImages is set.
	// Empty means an extracted_images directory next to the source.
	OutputDirectory string
	ModelIdentifier string

	TablePages    string
	MinTextTokens int
	Concurrent    bool
}

// Result is what a run hands back to the caller.
type Result struct {
	Content string                `json:"content"`
	Text    string                `json:"text,omitempty"`
	Tables  []extract.TableRecord `json:"tables,omitempty"`
	Images  []extract.ImageRecord `json:"images,omitempty"`
	Stats   Stats                 `json:"stats"`
}
