package loader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/treestate/pkg/debug"
	"github.com/vanderheijden86/treestate/pkg/model"
)

// maxParallelLoads bounds open file descriptors during LoadAll.
const maxParallelLoads = 32

// Result is the outcome of loading one file.
type Result[T any] struct {
	Path  string
	Tree  *model.Tree[T]
	Error error
}

// LoadAll loads every path concurrently. Results are in path order; a failure
// on one file is recorded in its Result and does not stop the others.
// The returned error is non-nil only when the group itself fails.
func LoadAll[T any](ctx context.Context, paths []string, opts ParseOptions) ([]Result[T], error) {
	defer debug.LogEnterExit("loader.LoadAll")()
	results := make([]Result[T], len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = Result[T]{Path: path, Error: ctx.Err()}
				return nil
			default:
			}

			tree, err := LoadFile[T](path, opts)
			results[i] = Result[T]{Path: path, Tree: tree, Error: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	debug.Log("loader: loaded %d files, %d failed", len(paths), len(Failed(results)))
	return results, nil
}

// Failed returns the results that carry an error.
func Failed[T any](results []Result[T]) []Result[T] {
	var out []Result[T]
	for _, r := range results {
		if r.Error != nil {
			out = append(out, r)
		}
	}
	return out
}
