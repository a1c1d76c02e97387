package verify

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tt "github.com/gnoverse/tverify/internal/types"
)

type mockVerifyEngine struct {
	mock.Mock
}

func (m *mockVerifyEngine) Run(label string) (tt.Result, error) {
	args := m.Called(label)
	return args.Get(0).(tt.Result), args.Error(1)
}

func (m *mockVerifyEngine) Theorems() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *mockVerifyEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func (m *mockVerifyEngine) IgnoreLabel(label string) {
	m.Called(label)
}

func setupMockEngine(results ...tt.Result) *mockVerifyEngine {
	mockEngine := new(mockVerifyEngine)
	labels := make([]string, len(results))
	for i, r := range results {
		labels[i] = r.Label
		mockEngine.On("Run", r.Label).Return(r, nil)
	}
	mockEngine.On("Theorems").Return(labels)
	return mockEngine
}

func TestProcessTheorem(t *testing.T) {
	t.Parallel()
	expected := tt.Result{Label: "id", Verdict: tt.SeverityOk, Steps: 40}
	mockEngine := new(mockVerifyEngine)
	mockEngine.On("Run", "id").Return(expected, nil)

	result, err := ProcessTheorem(mockEngine, "id")

	assert.NoError(t, err)
	assert.Equal(t, expected, result)
	mockEngine.AssertExpectations(t)
}

func TestProcessTheoremsKeepsDeclarationOrder(t *testing.T) {
	t.Parallel()

	var results []tt.Result
	for _, label := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		results = append(results, tt.Result{Label: label, Steps: len(label)})
	}
	mockEngine := setupMockEngine(results...)

	var progress bytes.Buffer
	got, err := ProcessTheorems(context.Background(), zap.NewNop(), mockEngine,
		ProcessOptions{Workers: 3, Progress: &progress, Description: "prop"}, ProcessTheorem)

	require.NoError(t, err)
	assert.Equal(t, results, got)
	assert.Contains(t, progress.String(), "prop")
	mockEngine.AssertExpectations(t)
}

func TestProcessTheoremsKeepsResultsAfterError(t *testing.T) {
	t.Parallel()

	mockEngine := new(mockVerifyEngine)
	mockEngine.On("Theorems").Return([]string{"ok", "broken", "after"})
	mockEngine.On("Run", "ok").Return(tt.Result{Label: "ok"}, nil)
	mockEngine.On("Run", "broken").Return(tt.Result{}, errors.New("boom"))
	mockEngine.On("Run", "after").Return(tt.Result{Label: "after"}, nil)

	got, err := ProcessTheorems(context.Background(), zap.NewNop(), mockEngine,
		ProcessOptions{Workers: 2}, ProcessTheorem)

	assert.EqualError(t, err, "broken: boom")
	require.Len(t, got, 3)
	assert.Equal(t, "ok", got[0].Label)
	assert.Equal(t, "after", got[2].Label)

	broken := got[1]
	assert.Equal(t, "broken", broken.Label)
	assert.Equal(t, tt.SeveritySevere, broken.Verdict)
	require.Len(t, broken.Issues, 1)
	assert.Equal(t, tt.RuleVerifierError, broken.Issues[0].Rule)
	assert.Equal(t, "broken: boom", broken.Issues[0].Message)
	assert.Equal(t, -1, broken.Issues[0].Step)

	summary := Summarize("prop.yaml", got)
	assert.Equal(t, []string{"broken"}, summary.Erroneous)
	assert.True(t, summary.Failed())
	mockEngine.AssertExpectations(t)
}

func TestProcessTheoremsCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	mockEngine := new(mockVerifyEngine)
	mockEngine.On("Theorems").Return([]string{"first", "second", "third"})
	mockEngine.On("Run", "first").Return(tt.Result{Label: "first"}, nil).Run(func(mock.Arguments) {
		cancel()
	})

	got, err := ProcessTheorems(ctx, nil, mockEngine, ProcessOptions{Workers: 1}, ProcessTheorem)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []tt.Result{{Label: "first"}}, got)
	mockEngine.AssertNotCalled(t, "Run", "third")
}

func TestProcessTheoremsEmpty(t *testing.T) {
	t.Parallel()

	mockEngine := setupMockEngine()
	got, err := ProcessTheorems(context.Background(), zap.NewNop(), mockEngine, ProcessOptions{}, ProcessTheorem)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		config, err := LoadConfig(filepath.Join("testdata", "config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "strict", config.Name)
		assert.Equal(t, tt.SeverityOff, config.Rules[tt.RuleDisjointViolation].Severity)
		assert.Equal(t, []string{"wphph"}, config.Ignore)
		assert.Equal(t, 2, config.Workers)
		assert.Equal(t, 24*time.Hour, config.Cache.MaxAge)
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		config, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), config)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join("testdata", "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join("testdata", "unknown_field.yaml"))
		assert.ErrorContains(t, err, "colour")
	})
}

func TestCollectDatabases(t *testing.T) {
	t.Parallel()

	files, err := CollectDatabases([]string{
		filepath.Join("testdata", "prop.yaml"),
		filepath.Join("testdata", "more"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "more", "broken.yml"),
		filepath.Join("testdata", "prop.yaml"),
	}, files)

	_, err = CollectDatabases([]string{filepath.Join("testdata", "missing")})
	assert.Error(t, err)
}

func TestNewVerifiesDatabase(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Ignore = []string{"wphph"}
	engine, err := New(filepath.Join("testdata", "prop.yaml"), config, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, engine.Theorems())

	results, err := ProcessTheorems(context.Background(), zap.NewNop(), engine, ProcessOptions{}, ProcessTheorem)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, tt.SeverityOk, results[0].Verdict)
	assert.Equal(t, 40, results[0].Steps)

	_, err = New(filepath.Join("testdata", "missing.yaml"), config, zap.NewNop())
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	engine, err := New(filepath.Join("testdata", "more", "broken.yml"), DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	results, err := ProcessTheorems(context.Background(), zap.NewNop(), engine, ProcessOptions{Workers: 2}, ProcessTheorem)
	require.NoError(t, err)

	summary := Summarize("broken", results)
	assert.Equal(t, Summary{
		Database:   "broken",
		Checked:    2,
		Incomplete: []string{"hole"},
		Erroneous:  []string{"wrong"},
		Issues:     1,
	}, summary)
	assert.True(t, summary.Failed())

	assert.False(t, Summarize("ok", []tt.Result{{Label: "a", Verdict: tt.SeverityIncomplete}}).Failed())
}

func TestOpenCache(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Cache.Dir = t.TempDir()
	cache, err := OpenCache(config)
	require.NoError(t, err)
	assert.NoError(t, cache.Close())
}
