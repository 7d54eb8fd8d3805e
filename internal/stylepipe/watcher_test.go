package isp

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDebouncerBatchesEvents(t *testing.T) {
	var mu sync.Mutex
	var batches [][]fsnotify.Event

	d := newDebouncer(50*time.Millisecond, func(events []fsnotify.Event) {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
	})
	defer d.stop()

	for i := 0; i < 5; i++ {
		d.addEvent(fsnotify.Event{Name: "a.css", Op: fsnotify.Write})
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 1
	})

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 || len(batches[0]) != 5 {
		t.Errorf("got %d batch(es), want 1 batch of 5 events", len(batches))
	}
}

func TestDebouncerStop(t *testing.T) {
	called := make(chan struct{}, 1)
	d := newDebouncer(20*time.Millisecond, func([]fsnotify.Event) { called <- struct{}{} })

	d.addEvent(fsnotify.Event{Name: "a.css", Op: fsnotify.Write})
	d.stop()

	select {
	case <-called:
		t.Errorf("stopped debouncer still flushed")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerStopWaitsForRunningBatch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	finished, calls := false, 0

	d := newDebouncer(10*time.Millisecond, func([]fsnotify.Event) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		mu.Lock()
		finished = true
		mu.Unlock()
	})

	d.addEvent(fsnotify.Event{Name: "a.css", Op: fsnotify.Write})
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("batch never started")
	}

	stopped := make(chan struct{})
	go func() {
		d.stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatalf("stop returned while a batch was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not return after the batch finished")
	}

	d.addEvent(fsnotify.Event{Name: "b.css", Op: fsnotify.Write})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if !finished {
		t.Errorf("stop returned before the batch finished")
	}
	if calls != 1 {
		t.Errorf("fn ran %d times, want 1 (no batches after stop)", calls)
	}
}

func TestGetIsRelevant(t *testing.T) {
	env := setupTestEnv(t)
	env.config.WatchConfig = &WatchConfig{IgnoreFiles: []string{"**/*.min.css"}}

	s, err := env.config.newWatchSession()
	if err != nil {
		t.Fatalf("newWatchSession() error = %v", err)
	}
	defer s.fsw.Close()

	tests := []struct {
		name string
		evt  fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: filepath.Join(env.root, "styles/a.css"), Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: filepath.Join(env.root, "styles/a.css"), Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: filepath.Join(env.root, "styles/a.css"), Op: fsnotify.Remove}, true},
		{"chmod", fsnotify.Event{Name: filepath.Join(env.root, "styles/a.css"), Op: fsnotify.Chmod}, false},
		{"not css", fsnotify.Event{Name: filepath.Join(env.root, "styles/a.scss"), Op: fsnotify.Write}, false},
		{"output", fsnotify.Event{Name: filepath.Join(env.root, "dist/styles/a.css"), Op: fsnotify.Write}, false},
		{"ignored", fsnotify.Event{Name: filepath.Join(env.root, "styles/a.min.css"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.getIsRelevant(tt.evt); got != tt.want {
				t.Errorf("getIsRelevant(%v) = %v, want %v", tt.evt, got, tt.want)
			}
		})
	}
}

func TestWatchRebuildsAndBroadcasts(t *testing.T) {
	env := setupTestEnv(t)
	env.config.WatchConfig = &WatchConfig{Debounce: 20 * time.Millisecond}
	env.createTestFile(t, "styles/main.css", ".a { color: red }\n")
	if err := os.MkdirAll(filepath.Join(env.root, ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	s, err := env.config.newWatchSession()
	if err != nil {
		t.Fatalf("newWatchSession() error = %v", err)
	}
	defer s.fsw.Close()

	s.hub = NewReloadHub(nil)
	srv := httptest.NewServer(s.hub.Handler(0))
	defer srv.Close()
	conn := dialHub(t, srv)
	defer conn.Close()
	waitFor(t, 2*time.Second, func() bool { return s.hub.ClientCount() == 1 })

	if err := s.addDirs(env.root); err != nil {
		t.Fatalf("addDirs() error = %v", err)
	}
	for _, w := range s.fsw.WatchList() {
		if strings.HasSuffix(w, ".git") || strings.HasPrefix(w, env.config.OutDir) {
			t.Errorf("ignored directory is watched: %s", w)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.handleWatcherEmissions(ctx) }()

	env.createTestFile(t, "styles/main.css", ".a { color: blue }\n")

	readPayload := func() ReloadPayload {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var p ReloadPayload
		if err := conn.ReadJSON(&p); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		return p
	}

	if p := readPayload(); p.ChangeType != ChangeTypeRebuilding {
		t.Fatalf("first payload = %q, want rebuilding", p.ChangeType)
	}
	p := readPayload()
	if p.ChangeType != ChangeTypeCSS || p.Files["styles/main.css"] != "styles/main.css" {
		t.Fatalf("second payload = %+v, want css with the manifest", p)
	}
	if got := env.readFile(t, "dist/styles/main.css"); !strings.Contains(got, ".a{color:") || strings.Contains(got, "red") {
		t.Errorf("output was not rebuilt: %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("handleWatcherEmissions() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Errorf("watcher did not stop after cancel")
	}
}

func TestWatchBroadcastsBuildErrors(t *testing.T) {
	env := setupTestEnv(t)
	env.createTestFile(t, "styles/main.css", "@import \"missing.css\";\n")

	s, err := env.config.newWatchSession()
	if err != nil {
		t.Fatalf("newWatchSession() error = %v", err)
	}
	defer s.fsw.Close()

	s.hub = NewReloadHub(nil)
	srv := httptest.NewServer(s.hub.Handler(0))
	defer srv.Close()
	conn := dialHub(t, srv)
	defer conn.Close()
	waitFor(t, 2*time.Second, func() bool { return s.hub.ClientCount() == 1 })

	go s.rebuild(context.Background())

	var last ReloadPayload
	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&last); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
	}
	if last.ChangeType != ChangeTypeError || !strings.Contains(last.Error, "missing.css") {
		t.Errorf("payload = %+v, want an error naming missing.css", last)
	}
}
