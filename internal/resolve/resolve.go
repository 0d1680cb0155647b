// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns an accession into GO annotations.
//
// Resolution tries the accession as a cross-reference key first. Only
// when that finds nothing is the accession mapped to a UniProt accession,
// whose cross-reference lookup is then returned. An accession that
// resolves to nothing yields an empty result, not an error.
package resolve

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/topaz/internal/retry"
	"github.com/pdiddy/topaz/pkg/types"
)

// Source is the read side of the association store.
type Source interface {
	LookupByXrefKey(ctx context.Context, key string) ([]types.Annotation, error)
	LookupUniProt(ctx context.Context, acc string) (string, bool, error)
}

// Resolve runs the three lookups against src without caching or retries.
func Resolve(ctx context.Context, src Source, acc string) ([]types.Annotation, error) {
	direct, err := src.LookupByXrefKey(ctx, acc)
	if err != nil {
		return nil, err
	}
	if len(direct) > 0 {
		return direct, nil
	}

	uniprot, ok, err := src.LookupUniProt(ctx, acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return src.LookupByXrefKey(ctx, uniprot)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache memoizes results per accession, compared case-insensitively.
// Cached slices are shared and must not be modified.
func WithCache() Option {
	return func(r *Resolver) { r.cache = &sync.Map{} }
}

// WithRetry retries store reads according to p.
func WithRetry(p retry.Policy) Option {
	return func(r *Resolver) { r.retry = p }
}

// Resolver resolves accessions against a Source. It is safe for
// concurrent use when the Source is.
type Resolver struct {
	src   Source
	cache *sync.Map
	retry retry.Policy
}

// New returns a Resolver over src.
func New(src Source, opts ...Option) *Resolver {
	r := &Resolver{src: src}
	for _, o := range opts {
		o(r)
	}
	if r.retry.MaxRetries > 0 {
		r.src = &retryingSource{src: src, policy: r.retry}
	}
	return r
}

// Resolve returns the (term, evidence) pairs for acc.
func (r *Resolver) Resolve(ctx context.Context, acc string) ([]types.Annotation, error) {
	if r.cache == nil {
		return Resolve(ctx, r.src, acc)
	}

	key := strings.ToUpper(acc)
	if v, ok := r.cache.Load(key); ok {
		return v.([]types.Annotation), nil
	}
	out, err := Resolve(ctx, r.src, acc)
	if err != nil {
		return nil, err
	}
	r.cache.Store(key, out)
	return out, nil
}

// ResolveAll resolves accs with at most limit lookups in flight. The
// result is parallel to accs. The first error cancels the rest.
func (r *Resolver) ResolveAll(ctx context.Context, accs []string, limit int) ([][]types.Annotation, error) {
	if limit <= 0 {
		limit = 1
	}
	out := make([][]types.Annotation, len(accs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, acc := range accs {
		g.Go(func() error {
			res, err := r.Resolve(gctx, acc)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type retryingSource struct {
	src    Source
	policy retry.Policy
}

func (s *retryingSource) LookupByXrefKey(ctx context.Context, key string) ([]types.Annotation, error) {
	var out []types.Annotation
	err := s.policy.Do(ctx, func() error {
		var err error
		out, err = s.src.LookupByXrefKey(ctx, key)
		return err
	})
	return out, err
}

func (s *retryingSource) LookupUniProt(ctx context.Context, acc string) (string, bool, error) {
	var (
		uniprot string
		ok      bool
	)
	err := s.policy.Do(ctx, func() error {
		var err error
		uniprot, ok, err = s.src.LookupUniProt(ctx, acc)
		return err
	})
	return uniprot, ok, err
}
