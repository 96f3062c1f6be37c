// Package shopapi exposes one repository per backend resource on top of the
// authenticated API client.
package shopapi

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Doer is the subset of apiclient.Client the repositories use.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
	Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error
}

// Resource is a REST collection of T. Lists are always fetched fresh.
type Resource[T any] struct {
	api  Doer
	path string
	name string
}

func NewResource[T any](api Doer, path, name string) *Resource[T] {
	return &Resource[T]{api: api, path: path, name: name}
}

func (r *Resource[T]) List(ctx context.Context, filter url.Values) ([]T, error) {
	var out []T
	if err := r.api.Get(ctx, r.path, filter, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.name, err)
	}
	return out, nil
}

func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	if err := r.api.Get(ctx, r.item(id), nil, &out); err != nil {
		return out, fmt.Errorf("get %s %d: %w", r.name, id, err)
	}
	return out, nil
}

func (r *Resource[T]) Create(ctx context.Context, in T) (T, error) {
	var out T
	if err := r.api.Post(ctx, r.path, in, &out); err != nil {
		return out, fmt.Errorf("create %s: %w", r.name, err)
	}
	return out, nil
}

func (r *Resource[T]) Update(ctx context.Context, id int64, in T) (T, error) {
	var out T
	if err := r.api.Put(ctx, r.item(id), in, &out); err != nil {
		return out, fmt.Errorf("update %s %d: %w", r.name, id, err)
	}
	return out, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	if err := r.api.Delete(ctx, r.item(id)); err != nil {
		return fmt.Errorf("delete %s %d: %w", r.name, id, err)
	}
	return nil
}

func (r *Resource[T]) item(id int64) string {
	return strings.TrimSuffix(r.path, "/") + "/" + strconv.FormatInt(id, 10)
}

// ByVariety is the common list filter.
func ByVariety(id int64) url.Values {
	if id == 0 {
		return nil
	}
	return url.Values{"variety_id": {strconv.FormatInt(id, 10)}}
}

func BySupplier(id int64) url.Values {
	if id == 0 {
		return nil
	}
	return url.Values{"supplier_id": {strconv.FormatInt(id, 10)}}
}
