package kanjidrill

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kanjiServer serves the test illustrations and counts the requests.
func kanjiServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch filepath.Base(r.URL.Path) {
		case "0798b.svg":
			// 神: reachable, but not an svg document.
			w.Write([]byte("<html><body>rate limited</body></html>"))
		default:
			http.ServeFile(w, r, filepath.Join(testKanjiDir, filepath.Base(r.URL.Path)))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestHTTPProvider_New(t *testing.T) {
	p, err := NewHTTPProvider("", "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSource, p.BaseURL)
	assert.Equal(t, DefaultTimeout, p.Client.Timeout)
	assert.Equal(t, DefaultSource+"/04e00.svg", p.URL('一'))

	p, err = NewHTTPProvider("http://localhost:8080/kanji/", "", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/kanji/06728.svg", p.URL('木'))

	_, err = NewHTTPProvider("not a url", "", 0, nil)
	assert.Error(t, err)
}

func TestHTTPProvider_Illustration(t *testing.T) {
	srv, hits := kanjiServer(t)
	p, err := NewHTTPProvider(srv.URL, "", time.Second, nil)
	require.NoError(t, err)

	ctx := context.Background()
	ill, err := p.Illustration(ctx, '人')
	require.NoError(t, err)
	assert.Equal(t, 2, ill.StrokeCount())

	n, err := p.StrokeCount(ctx, '木')
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Memoized: no further requests.
	_, err = p.Illustration(ctx, '人')
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}

func TestHTTPProvider_NotFound(t *testing.T) {
	srv, hits := kanjiServer(t)
	p, err := NewHTTPProvider(srv.URL, "", time.Second, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = p.Illustration(ctx, '鬱')
	assert.ErrorIs(t, err, ErrIllustrationNotFound)
	assert.True(t, IsNotFound(err))

	_, err = p.StrokeCount(ctx, '鬱')
	assert.ErrorIs(t, err, ErrStrokeCountUnavailable)

	_, err = p.Illustration(ctx, '神')
	assert.ErrorIs(t, err, ErrIllustrationNotFound)

	// Failures are not retried.
	_, err = p.Illustration(ctx, '鬱')
	assert.Error(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}

func TestHTTPProvider_Concurrent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(50 * time.Millisecond)
		http.ServeFile(w, r, filepath.Join(testKanjiDir, filepath.Base(r.URL.Path)))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, "", time.Second, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ill, err := p.Illustration(context.Background(), '木')
			assert.NoError(t, err)
			assert.Equal(t, 4, ill.StrokeCount())
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestHTTPProvider_Cancelled(t *testing.T) {
	srv, hits := kanjiServer(t)
	p, err := NewHTTPProvider(srv.URL, "", time.Second, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Illustration(ctx, '一')
	assert.Error(t, err)

	// The cancellation is not remembered as a failure.
	ill, err := p.Illustration(context.Background(), '一')
	require.NoError(t, err)
	assert.Equal(t, 1, ill.StrokeCount())
	assert.LessOrEqual(t, atomic.LoadInt32(hits), int32(2))
}

func TestHTTPProvider_CancelledLeader(t *testing.T) {
	var hits int32
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			// Hold the first download until its client goes away.
			close(started)
			<-r.Context().Done()
			return
		}
		http.ServeFile(w, r, filepath.Join(testKanjiDir, filepath.Base(r.URL.Path)))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, "", 5*time.Second, nil)
	require.NoError(t, err)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := p.Illustration(leaderCtx, '木')
		leaderErr <- err
	}()
	<-started

	followerErr := make(chan error, 1)
	go func() {
		ill, err := p.Illustration(context.Background(), '木')
		if err == nil && ill.StrokeCount() != 4 {
			t.Errorf("unexpected stroke count: %d", ill.StrokeCount())
		}
		followerErr <- err
	}()
	// Let the follower join the pending download.
	time.Sleep(50 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leaderErr, ErrIllustrationNotFound)
	assert.NoError(t, <-followerErr)

	// The cancellation was not memoized.
	ill, err := p.Illustration(context.Background(), '木')
	require.NoError(t, err)
	assert.Equal(t, 4, ill.StrokeCount())
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestHTTPProvider_CacheDir(t *testing.T) {
	srv, hits := kanjiServer(t)
	dir := t.TempDir()

	p, err := NewHTTPProvider(srv.URL, dir, time.Second, nil)
	require.NoError(t, err)
	_, err = p.Illustration(context.Background(), '人')
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	assert.FileExists(t, filepath.Join(dir, "04eba.svg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	// A new provider reads the cached file instead of downloading it.
	p, err = NewHTTPProvider(srv.URL, dir, time.Second, nil)
	require.NoError(t, err)
	ill, err := p.Illustration(context.Background(), '人')
	require.NoError(t, err)
	assert.Equal(t, 2, ill.StrokeCount())
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestDirProvider(t *testing.T) {
	p := DirProvider{Dir: testKanjiDir}
	ctx := context.Background()

	n, err := p.StrokeCount(ctx, '木')
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = p.Illustration(ctx, '鬱')
	assert.ErrorIs(t, err, ErrIllustrationNotFound)
}

func TestChain(t *testing.T) {
	fake := newFakeProvider(map[Character]int{'鬱': 29})
	ch := Chain{DirProvider{Dir: testKanjiDir}, fake}
	ctx := context.Background()

	n, err := ch.StrokeCount(ctx, '人')
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, fake.callCount('人'))

	n, err = ch.StrokeCount(ctx, '鬱')
	require.NoError(t, err)
	assert.Equal(t, 29, n)

	_, err = ch.Illustration(ctx, '龘')
	assert.ErrorIs(t, err, ErrIllustrationNotFound)

	_, err = Chain{}.Illustration(ctx, '一')
	assert.ErrorIs(t, err, ErrIllustrationNotFound)
}
