package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type counter struct {
	Value int      `json:"value"`
	Seen  []string `json:"seen"`
}

func counterSchema() Schema[counter] {
	return Schema[counter]{
		Default: func() counter { return counter{} },
		Clone: func(c counter) counter {
			c.Seen = append([]string{}, c.Seen...)
			return c
		},
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDocumentSerializesConcurrentUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	doc, err := Open(path, counterSchema())
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := doc.Update(context.Background(), func(c *counter) error {
				c.Value++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snapshot, err := doc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, writers, snapshot.Value)
	require.NoError(t, doc.Close())

	reopened, err := Open(path, counterSchema())
	require.NoError(t, err)
	defer reopened.Close()

	persisted, err := reopened.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, writers, persisted.Value, "every update must reach the file")
}

func TestDocumentFailedUpdateKeepsValue(t *testing.T) {
	doc, err := Open("", counterSchema())
	require.NoError(t, err)
	defer doc.Close()

	require.NoError(t, doc.Update(context.Background(), func(c *counter) error {
		c.Value = 1
		return nil
	}))

	boom := errors.New("boom")
	err = doc.Update(context.Background(), func(c *counter) error {
		c.Value = 99
		c.Seen = append(c.Seen, "partial")
		return boom
	})
	assert.Equal(t, boom, err)

	snapshot, err := doc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Value)
	assert.Empty(t, snapshot.Seen)
}

func TestDocumentRecoversFromPanickingCallback(t *testing.T) {
	doc, err := Open("", counterSchema())
	require.NoError(t, err)
	defer doc.Close()

	err = doc.Update(context.Background(), func(c *counter) error {
		panic("bad mutator")
	})
	assert.Error(t, err)

	assert.NoError(t, doc.Update(context.Background(), func(c *counter) error {
		c.Value++
		return nil
	}), "owner goroutine must survive a panic")
}

func TestDocumentSnapshotIsACopy(t *testing.T) {
	doc, err := Open("", counterSchema())
	require.NoError(t, err)
	defer doc.Close()

	require.NoError(t, doc.Update(context.Background(), func(c *counter) error {
		c.Seen = append(c.Seen, "a")
		return nil
	}))

	snapshot, err := doc.Snapshot(context.Background())
	require.NoError(t, err)
	snapshot.Seen[0] = "mutated"

	again, err := doc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", again.Seen[0])
}

func TestDocumentClosed(t *testing.T) {
	doc, err := Open("", counterSchema())
	require.NoError(t, err)
	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())

	err = doc.Update(context.Background(), func(c *counter) error { return nil })
	assert.Equal(t, ErrClosed, err)
}

func TestDocumentRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path, counterSchema())
	assert.Error(t, err)
}
