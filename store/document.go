// Package store keeps the bot's JSON documents. Each document is owned by a
// single goroutine; reads and writes are requests to that owner, so
// concurrent commands never lose each other's updates.
package store

import (
	"context"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/xgctrenches/xgcbot/cache"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrClosed is returned for requests sent after Close
var ErrClosed = errors.New("store: document closed")

// Schema tells a Document how to build, copy and repair its value.
type Schema[T any] struct {
	Default   func() T
	Clone     func(T) T
	Normalize func(*T)
}

// Document is a JSON file with one writer. A Document with an empty path
// lives in memory only.
type Document[T any] struct {
	path   string
	schema Schema[T]

	requests chan request[T]
	quit     chan struct{}
	done     chan struct{}
}

type request[T any] struct {
	mutate func(*T) error
	view   func(T)
	reply  chan error
}

// Open loads path (or the default value when the file does not exist) and
// starts the owner goroutine.
func Open[T any](path string, schema Schema[T]) (*Document[T], error) {
	value, err := load(path, schema)
	if err != nil {
		return nil, err
	}

	d := &Document[T]{
		path:     path,
		schema:   schema,
		requests: make(chan request[T]),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go d.run(value)

	return d, nil
}

func load[T any](path string, schema Schema[T]) (T, error) {
	value := schema.Default()
	if path == "" {
		return value, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return value, nil
	}
	if err != nil {
		return value, errors.Wrapf(err, "reading %s", path)
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, errors.Wrapf(err, "parsing %s", path)
	}
	if schema.Normalize != nil {
		schema.Normalize(&value)
	}
	return value, nil
}

func (d *Document[T]) run(value T) {
	defer close(d.done)

	for {
		select {
		case <-d.quit:
			return
		case req := <-d.requests:
			if req.view != nil {
				req.reply <- safely(func() error {
					req.view(d.schema.Clone(value))
					return nil
				})
				continue
			}

			working := d.schema.Clone(value)
			if err := safely(func() error { return req.mutate(&working) }); err != nil {
				req.reply <- err
				continue
			}
			if err := d.save(working); err != nil {
				req.reply <- err
				continue
			}
			value = working
			req.reply <- nil
		}
	}
}

// safely keeps a panicking callback from taking the owner goroutine down
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("store: callback panicked: %v", r)
		}
	}()
	return fn()
}

func (d *Document[T]) send(ctx context.Context, req request[T]) error {
	req.reply = make(chan error, 1)

	select {
	case d.requests <- req:
	case <-d.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// the owner always answers once it accepted the request
	return <-req.reply
}

// Update runs fn on a copy of the value. When fn succeeds the copy is written
// to disk and becomes the new value, otherwise nothing changes.
func (d *Document[T]) Update(ctx context.Context, fn func(*T) error) error {
	return d.send(ctx, request[T]{mutate: fn})
}

// View runs fn on a copy of the current value
func (d *Document[T]) View(ctx context.Context, fn func(T)) error {
	return d.send(ctx, request[T]{view: fn})
}

// Snapshot returns a copy of the current value
func (d *Document[T]) Snapshot(ctx context.Context) (T, error) {
	var out T
	err := d.View(ctx, func(v T) { out = v })
	return out, err
}

// Close stops the owner goroutine and waits for it
func (d *Document[T]) Close() error {
	select {
	case <-d.quit:
	default:
		close(d.quit)
	}
	<-d.done
	return nil
}

// save writes value next to path and renames it into place
func (d *Document[T]) save(value T) error {
	if d.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}

	dir := filepath.Dir(d.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return errors.Wrapf(err, "replacing %s", d.path)
	}

	cache.GetLogger().WithField("module", "store").Debugf("saved %s (%d bytes)", d.path, len(data))
	return nil
}
