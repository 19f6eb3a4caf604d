package importer

import (
	"context"
)

// Fetcher supplies bytes for external references (buffer uris, image
// files). Implementations decide how uris resolve against the asset's
// base path. Fetch may be called concurrently.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, uri string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// PayloadDecoder decodes compressed payloads (draco, ktx2, basis,
// meshopt) that the importers treat as opaque. The returned value is
// either a *scene.Geometry or an image, depending on the payload kind.
type PayloadDecoder interface {
	// Decodes reports whether this decoder handles the named codec,
	// e.g. "draco" or "ktx2".
	Decodes(codec string) bool
	Decode(ctx context.Context, raw []byte) (interface{}, error)
}
