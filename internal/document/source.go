package document

import (
	"errors"
	"fmt"
	"os"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	rpdf "rsc.io/pdf"

	"github.com/thywilljoshua/pdf-extract/internal/common"
)

// Source is a validated input document.
type Source struct {
	Path  string
	Pages int
}

// Open resolves path to a Source. It fails with a SOURCE_UNREADABLE error
// when the path is not a regular file or no PDF parser can read its
// page tree.
func Open(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Source{}, common.SourceUnreadable(path, err)
	}
	if !fi.Mode().IsRegular() {
		return Source{}, common.SourceUnreadable(path, errors.New("not a regular file"))
	}

	// rsc.io/pdf is strict about xref tables; the other parsers repair
	// or tolerate files it rejects.
	n, err := pageCount(path, fi.Size())
	if err != nil {
		n, err = firstCount(path, pageCountLenient, pageCountRepairing)
	}
	if err != nil {
		return Source{}, common.SourceUnreadable(path, err)
	}
	if n <= 0 {
		return Source{}, common.SourceUnreadable(path, errors.New("document has no pages"))
	}
	return Source{Path: path, Pages: n}, nil
}

func pageCount(path string, size int64) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	// rsc.io/pdf panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	doc, err := rpdf.NewReader(f, size)
	if err != nil {
		return 0, err
	}
	return doc.NumPage(), nil
}

func pageCountLenient(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	f, r, err := lpdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}

func firstCount(path string, counters ...func(string) (int, error)) (int, error) {
	var errs []error
	for _, count := range counters {
		n, err := count(path)
		if err == nil {
			return n, nil
		}
		errs = append(errs, err)
	}
	return 0, errors.Join(errs...)
}

func pageCountRepairing(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}
