package watcher

import (
	"fmt"

	"github.com/vanderheijden86/treestate/pkg/loader"
	"github.com/vanderheijden86/treestate/pkg/model"
)

// Follow starts a watcher that reloads path on every change and passes the new
// tree to apply. Load failures go to the WithOnError callback and leave the
// previous tree in place. apply runs on the watcher's goroutine; callers that
// hand the tree to a treestate.State must serialize with their other uses of
// it.
func Follow[T any](path string, parse loader.ParseOptions, apply func(*model.Tree[T]), opts ...Option) (*Watcher, error) {
	w, err := New(path, opts...)
	if err != nil {
		return nil, err
	}
	onError := w.onError
	w.onChange = func() {
		tree, err := loader.LoadFile[T](w.path, parse)
		if err != nil {
			onError(fmt.Errorf("reload %s: %w", w.path, err))
			return
		}
		apply(tree)
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
