package extract

import (
	"context"

	"github.com/thywilljoshua/pdf-extract/internal/document"
)

// Extraction methods reported in stats.
const (
	MethodNative  = "native"
	MethodLattice = "lattice"
	MethodVision  = "vision"
)

// TableRecord is one extracted table. StructuredRows is only set for
// tables found by the lattice detector; vision tables carry markdown only.
type TableRecord struct {
	Page           int                 `json:"page"`
	Markdown       string              `json:"markdown"`
	StructuredRows []map[string]string `json:"structured_rows,omitempty"`
}

// ImageRecord describes one page image. RawImage and StoredFilename are
// never both set: persisting the image releases the bytes. StoredFilename
// is the bare file name inside the sink's directory.
type ImageRecord struct {
	Page           int    `json:"page"`
	Description    string `json:"description"`
	StoredFilename string `json:"stored_filename,omitempty"`
	RawImage       []byte `json:"-"`
}

type TextLayer interface {
	PageTexts(ctx context.Context, path string) ([]string, error)
}

type Rasterizer interface {
	Rasterize(ctx context.Context, path string) ([]document.Page, error)
}

type TableDetector interface {
	Detect(ctx context.Context, path string, pages []int) ([]document.Table, error)
}

// PageSource yields the rendered page sequence of the current run.
type PageSource interface {
	Pages(ctx context.Context) ([]document.Page, error)
}

// ImageSink persists a rendered image under name and returns where it was
// stored.
type ImageSink interface {
	Save(name string, png []byte) (string, error)
}
