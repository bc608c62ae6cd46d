package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zpdzap/sitebuilder/internal/agent"
	"github.com/zpdzap/sitebuilder/internal/config"
	"github.com/zpdzap/sitebuilder/internal/sandbox"
	"github.com/zpdzap/sitebuilder/internal/steps"
)

func readyMock() *sandbox.MockSandbox {
	m := sandbox.NewMockSandbox()
	m.Processes["npm run dev"] = &sandbox.MockProcess{Output: "Local: http://localhost:5173/\n", KeepAlive: true}
	m.ReadyOn = "npm run dev"
	m.ReadyPort = 5173
	m.ReadyURL = "http://localhost:5173"
	return m
}

func TestAddStepsNumbersAndMaterializes(t *testing.T) {
	s := New(Options{})
	ctx := context.Background()

	n, err := s.AddSteps(ctx, []steps.BuildStep{
		{Kind: steps.CreateFolder, Path: "/src"},
		{Kind: steps.CreateFile, Path: "/src/index.html", Payload: "<h1>one</h1>"},
	})
	if err != nil || n != 2 {
		t.Fatalf("AddSteps = %d, %v", n, err)
	}
	if _, err := s.AddSteps(ctx, []steps.BuildStep{
		{Kind: steps.EditFile, Path: "/src/index.html", Payload: "<h1>two</h1>"},
	}); err != nil {
		t.Fatal(err)
	}

	list := s.Steps()
	for i, st := range list {
		if st.ID != i+1 {
			t.Errorf("step %d id = %d", i, st.ID)
		}
		if st.Status != steps.StatusCompleted {
			t.Errorf("step %d status = %s", i, st.Status)
		}
	}
	node, ok := s.Tree().Lookup("/src/index.html")
	if !ok || node.Content != "<h1>two</h1>" {
		t.Errorf("index.html = %+v, %v", node, ok)
	}
}

func TestStartMountsAndRemounts(t *testing.T) {
	m := readyMock()
	changes := 0
	s := New(Options{Sandbox: m, OnChange: func() { changes++ }})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.Sandbox(); err != ErrNotStarted {
		t.Errorf("Sandbox before Start = %v, want ErrNotStarted", err)
	}

	s.AddSteps(ctx, []steps.BuildStep{{Kind: steps.CreateFile, Path: "/package.json", Payload: `{"scripts":{"dev":"vite"}}`}})
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	st, err := s.Sandbox()
	if err != nil || st.State != sandbox.StateReady {
		t.Fatalf("Sandbox = %+v, %v", st, err)
	}
	if m.MountCount() != 1 {
		t.Errorf("mounts = %d, want 1", m.MountCount())
	}

	s.AddSteps(ctx, []steps.BuildStep{{Kind: steps.CreateFile, Path: "/index.html", Payload: "hi"}})
	if m.MountCount() != 2 {
		t.Errorf("mounts = %d after new batch, want 2", m.MountCount())
	}
	if changes == 0 {
		t.Error("OnChange never called")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start should fail while running")
	}
}

func TestStartUsesDetectedCommands(t *testing.T) {
	m := readyMock()
	m.Processes["pnpm run dev"] = m.Processes["npm run dev"]
	m.ReadyOn = "pnpm run dev"
	s := New(Options{Sandbox: m})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.AddSteps(ctx, []steps.BuildStep{
		{Kind: steps.CreateFile, Path: "/package.json", Payload: `{"scripts":{"dev":"vite"}}`},
		{Kind: steps.CreateFile, Path: "/pnpm-lock.yaml", Payload: "lockfileVersion: 9"},
	})
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := m.Spawned()
	if len(got) != 2 || got[0] != "pnpm install" || got[1] != "pnpm run dev" {
		t.Errorf("spawned = %q", got)
	}
}

func TestStartPublishesDetectedPort(t *testing.T) {
	m := readyMock()
	s := New(Options{Sandbox: m})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.AddSteps(ctx, []steps.BuildStep{{
		Kind:    steps.CreateFile,
		Path:    "/package.json",
		Payload: `{"scripts":{"dev":"next dev"},"dependencies":{"next":"14.2.0"}}`,
	}})
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := m.PublishedPorts(); !reflect.DeepEqual(got, []int{3000}) {
		t.Errorf("published = %v, want [3000]", got)
	}
}

func TestStartKeepsConfiguredPorts(t *testing.T) {
	m := readyMock()
	cfg := config.Default("demo")
	cfg.Sandbox.Ports = []int{8080}
	s := New(Options{Config: cfg, Sandbox: m})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := m.PublishedPorts(); !reflect.DeepEqual(got, []int{8080}) {
		t.Errorf("published = %v, want [8080]", got)
	}
}

// addConcurrently applies n single-file batches from separate goroutines.
func addConcurrently(t *testing.T, ctx context.Context, s *Session, prefix string, n int) {
	t.Helper()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("/%s-%d.txt", prefix, i)
			if _, err := s.AddSteps(ctx, []steps.BuildStep{{Kind: steps.CreateFile, Path: path, Payload: path}}); err != nil {
				t.Errorf("AddSteps %s: %v", path, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestConcurrentBatchesMountLatestTree(t *testing.T) {
	for round := 0; round < 20; round++ {
		m := readyMock()
		s := New(Options{Sandbox: m})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := s.Start(ctx); err != nil {
			cancel()
			t.Fatalf("Start: %v", err)
		}
		addConcurrently(t, ctx, s, "after", 8)

		last, err := m.LastMount()
		if err != nil {
			cancel()
			t.Fatal(err)
		}
		if want := sandbox.ToFileSystemTree(s.Tree()); !reflect.DeepEqual(last, want) {
			t.Errorf("round %d: last mount has %d entries, tree has %d", round, len(last), len(want))
		}
		cancel()
	}
}

func TestBatchesDuringBootMountLatestTree(t *testing.T) {
	for round := 0; round < 20; round++ {
		m := readyMock()
		s := New(Options{Sandbox: m})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		started := make(chan error, 1)
		go func() { started <- s.Start(ctx) }()
		addConcurrently(t, ctx, s, "boot", 8)
		if err := <-started; err != nil {
			cancel()
			t.Fatalf("Start: %v", err)
		}

		last, err := m.LastMount()
		if err != nil {
			cancel()
			t.Fatal(err)
		}
		if want := sandbox.ToFileSystemTree(s.Tree()); !reflect.DeepEqual(last, want) {
			t.Errorf("round %d: last mount has %d entries, tree has %d", round, len(last), len(want))
		}
		cancel()
	}
}

func TestPrompt(t *testing.T) {
	src := &agent.Replay{Batches: [][]steps.BuildStep{
		{{Kind: steps.CreateFile, Path: "/a.txt", Payload: "a"}},
	}}
	s := New(Options{Source: src})

	reply, n, err := s.Prompt(context.Background(), "add a file")
	if err != nil || n != 1 {
		t.Fatalf("Prompt = %q, %d, %v", reply, n, err)
	}
	h := s.History()
	if len(h) != 2 || h[0].Role != agent.RoleUser || h[1].Role != agent.RoleAssistant {
		t.Errorf("history = %+v", h)
	}
	if _, ok := s.Tree().Lookup("/a.txt"); !ok {
		t.Error("a.txt not materialized")
	}
}

func TestPromptWithoutSource(t *testing.T) {
	s := New(Options{})
	if _, _, err := s.Prompt(context.Background(), "hi"); err != agent.ErrNotConfigured {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestLoadStepsAndExport(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "batch.yaml")
	os.WriteFile(file, []byte("steps:\n  - kind: create-file\n    path: /readme.txt\n    payload: hi\n  - kind: create-folder\n    path: /docs\n"), 0o644)

	cfg := config.Default("demo")
	cfg.Archive.Dir = dir
	s := New(Options{Config: cfg})
	if n, err := s.LoadSteps(context.Background(), file); err != nil || n != 2 {
		t.Fatalf("LoadSteps = %d, %v", n, err)
	}

	path, ok := s.Export("", "")
	if !ok {
		t.Fatal("Export failed")
	}
	if path != filepath.Join(dir, "website-project.zip") {
		t.Errorf("path = %q", path)
	}
	lines := s.Console().Lines()
	if !strings.Contains(lines[len(lines)-1], "Exported project") {
		t.Errorf("console = %q", lines)
	}
}
