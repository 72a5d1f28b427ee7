package extract

import (
	"sort"
	"strconv"
	"strings"

	"github.com/thywilljoshua/pdf-extract/internal/common"
)

type span struct{ from, to int }

// PageSelector is a parsed page selector: "all", or comma-separated
// 1-based page numbers and inclusive N-M ranges.
type PageSelector struct {
	raw   string
	all   bool
	spans []span
}

// AllPages selects every page.
var AllPages = PageSelector{raw: "all", all: true}

// ParsePageSpec parses spec. An empty spec selects all pages.
func ParsePageSpec(spec string) (PageSelector, error) {
	s := strings.TrimSpace(spec)
	if s == "" || strings.EqualFold(s, "all") {
		return AllPages, nil
	}

	sel := PageSelector{raw: s}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return PageSelector{}, common.InvalidPageSpec(spec, "empty token")
		}
		from, to, isRange := strings.Cut(tok, "-")
		a, err := pageNumber(spec, from)
		if err != nil {
			return PageSelector{}, err
		}
		b := a
		if isRange {
			if b, err = pageNumber(spec, to); err != nil {
				return PageSelector{}, err
			}
			if a > b {
				return PageSelector{}, common.InvalidPageSpec(spec, "range "+tok+" starts after it ends")
			}
		}
		sel.spans = append(sel.spans, span{a, b})
	}
	return sel, nil
}

func pageNumber(spec, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, common.InvalidPageSpec(spec, strconv.Quote(s)+" is not a page number")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, common.InvalidPageSpec(spec, strconv.Quote(s)+" is not a page number")
	}
	if n < 1 {
		return 0, common.InvalidPageSpec(spec, "pages are numbered from 1")
	}
	return n, nil
}

// All reports whether the selector covers every page.
func (s PageSelector) All() bool { return s.all }

func (s PageSelector) String() string { return s.raw }

// Resolve returns the selected pages of a document with total pages,
// ascending and without duplicates. Pages past the end are dropped.
func (s PageSelector) Resolve(total int) []int {
	if total <= 0 {
		return nil
	}
	if s.all {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}

	seen := make(map[int]bool)
	var out []int
	for _, sp := range s.spans {
		for p := sp.from; p <= sp.to && p <= total; p++ {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Ints(out)
	return out
}
