package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Faultbox/glbview/internal/progress"
)

func TestRefClean(t *testing.T) {
	tests := []struct {
		in   Ref
		want Ref
	}{
		{"/model.glb", "/model.glb"},
		{"model.glb", "/model.glb"},
		{"/models/../model.glb", "/model.glb"},
		{"/../../etc/passwd", "/etc/passwd"},
		{"//a//b.glb", "/a/b.glb"},
	}

	for _, tt := range tests {
		if got := tt.in.Clean(); got != tt.want {
			t.Errorf("Ref(%q).Clean() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	payload := []byte("glTF-binary-bytes")
	if err := os.WriteFile(filepath.Join(root, "model.glb"), payload, 0644); err != nil {
		t.Fatalf("writing asset: %v", err)
	}

	src := DirSource{Root: root}

	rc, size, err := src.Open(context.Background(), "/model.glb")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	if size != int64(len(payload)) {
		t.Errorf("size = %d, want %d", size, len(payload))
	}
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, payload) {
		t.Errorf("content = %q, want %q", got, payload)
	}

	if _, _, err := src.Open(context.Background(), "/missing.glb"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing asset: got %v, want ErrNotFound", err)
	}

	if _, _, err := src.Open(context.Background(), "/"); !errors.Is(err, ErrNotFound) {
		t.Errorf("directory ref: got %v, want ErrNotFound", err)
	}
}

func TestHTTPSource(t *testing.T) {
	payload := bytes.Repeat([]byte{1}, 2048)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/model.glb":
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			w.Write(payload)
		case "/broken.glb":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := HTTPSource{BaseURL: srv.URL + "/"}

	if got := src.URL("model.glb"); got != srv.URL+"/model.glb" {
		t.Errorf("URL = %s", got)
	}

	rc, size, err := src.Open(context.Background(), "/model.glb")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()

	if size != int64(len(payload)) || !bytes.Equal(got, payload) {
		t.Errorf("size=%d len=%d, want %d", size, len(got), len(payload))
	}

	if _, _, err := src.Open(context.Background(), "/missing.glb"); !errors.Is(err, ErrNotFound) {
		t.Errorf("404: got %v, want ErrNotFound", err)
	}

	_, _, err = src.Open(context.Background(), "/broken.glb")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("500: got %v, want a non-NotFound error", err)
	}
}

func TestNewSource(t *testing.T) {
	if _, ok := NewSource("public", "").(DirSource); !ok {
		t.Error("expected DirSource without base url")
	}
	if _, ok := NewSource("public", "http://localhost").(HTTPSource); !ok {
		t.Error("expected HTTPSource with base url")
	}
}

// countingSource serves fixed bytes and counts Open calls.
type countingSource struct {
	data  []byte
	opens atomic.Int32
	gate  chan struct{} // when non-nil, Open waits on it
}

func (s *countingSource) Open(ctx context.Context, ref Ref) (io.ReadCloser, int64, error) {
	s.opens.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	if ref != "/model.glb" {
		return nil, 0, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(s.data)), int64(len(s.data)), nil
}

func TestManagerFetchCaches(t *testing.T) {
	src := &countingSource{data: bytes.Repeat([]byte{7}, 4096)}
	m := NewManager(src)

	tr := progress.New()
	data, err := m.Fetch(context.Background(), "model.glb", tr)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(data) != 4096 {
		t.Errorf("len = %d, want 4096", len(data))
	}
	if tr.Percent() != 99 {
		t.Errorf("progress after read = %d, want 99", tr.Percent())
	}

	if _, err := m.Fetch(context.Background(), "/model.glb", nil); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if n := src.opens.Load(); n != 1 {
		t.Errorf("source opened %d times, want 1", n)
	}

	hits, misses := m.Cache().Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("cache stats hits=%d misses=%d, want 1/1", hits, misses)
	}
}

func TestManagerPreloadThenFetch(t *testing.T) {
	src := &countingSource{data: []byte("abc")}
	m := NewManager(src)

	if err := m.Preload(context.Background(), "/model.glb"); err != nil {
		t.Fatalf("Preload: %v", err)
	}

	tr := progress.New()
	if _, err := m.Fetch(context.Background(), "/model.glb", tr); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if src.opens.Load() != 1 {
		t.Errorf("source opened %d times, want 1", src.opens.Load())
	}
	if tr.Percent() != 99 {
		t.Errorf("cache hit progress = %d, want 99", tr.Percent())
	}
}

func TestManagerSharesInflightRead(t *testing.T) {
	src := &countingSource{data: []byte("shared"), gate: make(chan struct{})}
	m := NewManager(src)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Fetch(context.Background(), "/model.glb", progress.New())
			errs <- err
		}()
	}

	// Let both callers reach the shared call before releasing the source.
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Fetch: %v", err)
		}
	}
	if n := src.opens.Load(); n != 1 {
		t.Errorf("source opened %d times, want 1", n)
	}
}

func TestManagerFetchNotFound(t *testing.T) {
	m := NewManager(&countingSource{})

	_, err := m.Fetch(context.Background(), "/missing.glb", progress.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestManagerFetchCancelled(t *testing.T) {
	src := &countingSource{data: []byte("x"), gate: make(chan struct{})}
	m := NewManager(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Fetch(ctx, "/model.glb", nil)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return after cancel")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Set("/a.glb", []byte{1})

	if _, ok := c.Get("/a.glb"); !ok {
		t.Fatal("expected cached entry")
	}
	c.Clear()
	if _, ok := c.Get("/a.glb"); ok {
		t.Error("entry survived Clear")
	}
	hits, misses := c.Stats()
	if hits != 0 || misses != 1 {
		t.Errorf("stats after clear hits=%d misses=%d, want 0/1", hits, misses)
	}
}
