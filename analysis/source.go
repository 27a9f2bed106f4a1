package analysis

import (
	"context"
	"os"

	"github.com/teranos/pixelcheck/design"
	"github.com/teranos/pixelcheck/errors"
)

// Fetcher resolves a remote design reference (URL or file key)
type Fetcher interface {
	FetchURL(ctx context.Context, ref string) (*design.Document, error)
}

// Source is one platform's design input. Exactly one field is set.
type Source struct {
	Raw  []byte `json:"-"`              // Design-file JSON
	Path string `json:"path,omitempty"` // Local JSON file
	URL  string `json:"url,omitempty"`  // Figma URL or bare key
}

// IsZero reports whether no input was given
func (s Source) IsZero() bool {
	return len(s.Raw) == 0 && s.Path == "" && s.URL == ""
}

func (s Source) describe() string {
	switch {
	case s.Path != "":
		return s.Path
	case s.URL != "":
		return s.URL
	default:
		return "inline JSON"
	}
}

func (s Source) load(ctx context.Context, fetcher Fetcher) (*design.Document, error) {
	set := 0
	for _, ok := range []bool{len(s.Raw) > 0, s.Path != "", s.URL != ""} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.NewInvalidRequestError("exactly one of raw JSON, path or URL is required (got %d)", set)
	}

	switch {
	case len(s.Raw) > 0:
		return design.ParseDocument(s.Raw)
	case s.Path != "":
		raw, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", s.Path)
		}
		return design.ParseDocument(raw)
	default:
		if fetcher == nil {
			return nil, errors.WithHint(errors.NewInvalidRequestError("no design fetcher configured for %s", s.URL),
				"set figma.token to fetch designs by URL")
		}
		return fetcher.FetchURL(ctx, s.URL)
	}
}
