package main

import (
	"github.com/vanderheijden86/treestate/pkg/debug"
	"github.com/vanderheijden86/treestate/pkg/loader"
	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/watcher"
)

// liveReload hands trees parsed by a following watcher to the viewer. Only the
// newest tree is kept; the viewer takes it on its own goroutine through next.
type liveReload struct {
	path    string
	parse   loader.ParseOptions
	trees   chan *model.Tree[model.Attrs]
	changed chan struct{}
	w       *watcher.Watcher
}

func followTree(path string, parse loader.ParseOptions, opts ...watcher.Option) (*liveReload, error) {
	lr := &liveReload{
		path:    path,
		parse:   parse,
		trees:   make(chan *model.Tree[model.Attrs], 1),
		changed: make(chan struct{}, 1),
	}
	opts = append(opts, watcher.WithOnError(func(err error) { debug.Log("watch: %v", err) }))
	w, err := watcher.Follow(path, parse, lr.offer, opts...)
	if err != nil {
		return nil, err
	}
	lr.w = w
	return lr, nil
}

// offer replaces any tree the viewer has not taken yet. It runs on the
// watcher's goroutine, the only sender.
func (lr *liveReload) offer(tree *model.Tree[model.Attrs]) {
	select {
	case <-lr.trees:
	default:
	}
	lr.trees <- tree
	select {
	case lr.changed <- struct{}{}:
	default:
	}
}

// Changes signals that a new tree is waiting.
func (lr *liveReload) Changes() <-chan struct{} {
	return lr.changed
}

// next returns the waiting tree, or reads the file when none is waiting, as
// for a manual reload.
func (lr *liveReload) next() (*model.Tree[model.Attrs], error) {
	select {
	case tree := <-lr.trees:
		return tree, nil
	default:
		return loader.LoadFile[model.Attrs](lr.path, lr.parse)
	}
}

func (lr *liveReload) Stop() {
	lr.w.Stop()
}
