package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingArtifacts struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (a *recordingArtifacts) Save(runID, artifactID string, data []byte) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saved == nil {
		a.saved = map[string][]byte{}
	}
	a.saved[runID+"/"+artifactID] = append([]byte{}, data...)
	return nil
}

func (a *recordingArtifacts) Get(runID, artifactID string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saved[runID+"/"+artifactID], nil
}

func (a *recordingArtifacts) List(runID string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.saved))
	for k := range a.saved {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (a *recordingArtifacts) Delete(runID, artifactID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.saved, runID+"/"+artifactID)
	return nil
}

func newTestRunContext(t *testing.T, optFns ...func(o *RunContextOptions)) *RunContext {
	t.Helper()
	fns := append([]func(o *RunContextOptions){func(o *RunContextOptions) {
		o.RunID = "run-1"
		o.SaveDir = t.TempDir()
	}}, optFns...)
	return NewRunContext(context.Background(), fns...)
}

// ---- ActionResult Tests ----

func TestActionResult_Helpers(t *testing.T) {
	ok := Succeedf("go_to_url", "Navigated to %s", "https://example.com")
	assert.True(t, ok.Success)
	assert.False(t, ok.Done)
	assert.Equal(t, "Navigated to https://example.com", ok.Message)

	bad := Failf("click_element", "Element %d not found", 7)
	assert.False(t, bad.Success)
	assert.False(t, bad.Done)

	fin := Finish(ActionDone, true, "ok", map[string]any{"a": 1})
	assert.True(t, fin.Done)
	assert.Equal(t, 1, fin.Content["a"])
}

func TestActionResult_WithContentCopies(t *testing.T) {
	base := Finish(ActionDone, true, "ok", map[string]any{"a": 1})
	derived := base.WithContent("b", 2)

	assert.Len(t, base.Content, 1)
	assert.Equal(t, 2, derived.Content["b"])
	assert.Equal(t, 1, derived.Content["a"])
	assert.Contains(t, derived.String(), "done(success=true, done=true)")
}

// ---- ID and Limiter Tests ----

func TestIDAllocator_Concurrent(t *testing.T) {
	a := NewIDAllocator()

	var wg sync.WaitGroup
	ids := make(chan int, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- a.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
	assert.Equal(t, 100, a.Last())
}

func TestModelLimiter(t *testing.T) {
	l := NewModelLimiter(2)
	require.NoError(t, l.Increment())
	require.NoError(t, l.Increment())

	err := l.Increment()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelLimitExceeded))
	assert.Equal(t, 2, l.Count())
	assert.Equal(t, 0, l.Remaining())

	unlimited := NewModelLimiter(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, unlimited.Increment())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}

// ---- RunContext Tests ----

func TestRunContext_Defaults(t *testing.T) {
	rc := NewRunContext(context.Background())

	assert.NotEmpty(t, rc.RunID)
	assert.Equal(t, 0, rc.AgentID)
	assert.Equal(t, -1, rc.ParentID)
	assert.Equal(t, filepath.Join("runs", rc.RunID), rc.SaveDir)
	assert.NotNil(t, rc.Memory)
	assert.NotNil(t, rc.Limiter)
	assert.NotNil(t, rc.Logger())
}

func TestRunContext_ForkIsolatesMemory(t *testing.T) {
	rc := newTestRunContext(t)
	rc.Memory.Set("plan", "p")

	child := rc.Fork()
	assert.Equal(t, 1, child.AgentID)
	assert.Equal(t, 0, child.ParentID)
	assert.Equal(t, rc.RunID, child.RunID)
	assert.Same(t, rc.Limiter, child.Limiter)

	_, ok := child.Memory.Get("plan")
	assert.False(t, ok)

	child.Memory.Set("rows", 1)
	_, ok = rc.Memory.Get("rows")
	assert.False(t, ok)
}

func TestRunContext_ShareKeepsMemory(t *testing.T) {
	rc := newTestRunContext(t)

	child := rc.Share()
	child.Memory.Set("rows", []any{1})

	v, ok := rc.Memory.Get("rows")
	require.True(t, ok)
	assert.Equal(t, []any{1}, v)
}

func TestRunContext_DistinctIDsAcrossTree(t *testing.T) {
	rc := newTestRunContext(t)

	a := rc.Fork()
	b := rc.Share()
	c := a.Fork()

	assert.Equal(t, []int{1, 2, 3}, []int{a.AgentID, b.AgentID, c.AgentID})
	assert.Equal(t, a.AgentID, c.ParentID)
	assert.Equal(t, 3, rc.LastAgentID())

	// A second run starts over.
	other := newTestRunContext(t)
	assert.Equal(t, 1, other.Fork().AgentID)
}

func TestRunContext_AgentDir(t *testing.T) {
	rc := newTestRunContext(t)
	child := rc.Fork().Fork().Fork()

	assert.Equal(t, filepath.Join(rc.SaveDir, "00_brain"), rc.AgentDir("brain"))
	assert.Equal(t, filepath.Join(rc.SaveDir, "03_navigator"), child.AgentDir("navigator"))
}

func TestRunContext_WithContext(t *testing.T) {
	rc := newTestRunContext(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bound := rc.WithContext(ctx)
	assert.Error(t, bound.Err())
	assert.NoError(t, rc.Err())
	assert.Equal(t, rc.AgentID, bound.AgentID)
}

func TestRunContext_SaveArtifact(t *testing.T) {
	rc := newTestRunContext(t)
	require.NoError(t, rc.SaveArtifact("x.csv", []byte("a")), "no store configured is a no-op")

	store := &recordingArtifacts{}
	rc = newTestRunContext(t, func(o *RunContextOptions) { o.Artifacts = store })
	require.NoError(t, rc.SaveArtifact("x.csv", []byte("a,b")))

	data, err := store.Get("run-1", "x.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(data))

	store.err = fmt.Errorf("boom")
	err = rc.SaveArtifact("y.csv", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save artifact y.csv")
}

// ---- ToolContext Tests ----

func TestToolContext_Accessors(t *testing.T) {
	rc := newTestRunContext(t)
	tc := NewToolContext(rc, "click_element", "call_1")

	assert.Equal(t, "click_element", tc.ToolName())
	assert.Equal(t, "call_1", tc.CallID())
	assert.Same(t, rc, tc.RunContext())
	assert.Equal(t, rc.SaveDir, tc.SaveDir())
	assert.Equal(t, rc.AgentDir("brain"), tc.AgentDir("brain"))

	_, err := tc.Page()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no browser page")
}

// ---- PageState Tests ----

func TestPageState_ElementsText(t *testing.T) {
	empty := &PageState{}
	assert.Equal(t, "- Empty page -", empty.ElementsText())

	s := &PageState{
		Elements: []Element{
			{Index: 0, Tag: "a", Text: "Home", Attributes: map[string]string{"href": "/", "class": ""}},
			{Index: 1, Tag: "button", Text: "Go"},
		},
	}
	assert.Equal(t, "[Start of page]\n[0]<a href='/'>Home />\n[1]<button>Go />\n[End of page]", s.ElementsText())

	s.PixelsAbove = 100
	s.PixelsBelow = 250
	txt := s.ElementsText()
	assert.Contains(t, txt, "... 100 pixels above - scroll or extract content to see more ...")
	assert.Contains(t, txt, "... 250 pixels below - scroll or extract content to see more ...")
	assert.NotContains(t, txt, "[Start of page]")
}

func TestPageState_TabsText(t *testing.T) {
	s := &PageState{Tabs: []Tab{{ID: 0, URL: "https://a", Title: "A"}, {ID: 1, URL: "https://b", Title: "B"}}}
	assert.Equal(t, "- page_id=0 url=https://a title=\"A\"\n- page_id=1 url=https://b title=\"B\"", s.TabsText())
}
