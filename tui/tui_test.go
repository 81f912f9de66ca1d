package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morningbrief/api"
	"morningbrief/orchestrator"
	"morningbrief/types"
)

func sample() *types.Briefing {
	b := &types.Briefing{RunID: "run-1", GeneratedAt: time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC)}
	for i := 0; i < 10; i++ {
		b.Articles = append(b.Articles, types.SummarizedArticle{
			Article:        types.Article{Title: "Story " + string(rune('A'+i)), URL: "https://news.example/" + string(rune('a'+i))},
			Summary:        "Something happened.",
			SummaryOutcome: types.OK(),
		})
	}
	return b
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_RunAndScroll(t *testing.T) {
	m := NewModel(context.Background(), SourceFunc(func(context.Context) (*types.Briefing, error) {
		return sample(), nil
	}))
	assert.Contains(t, m.View(), "Building your briefing")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	next, _ = next.Update(RunFinishedMsg{Briefing: sample()})
	m = next.(Model)

	assert.Equal(t, StateComplete, m.State)
	assert.Greater(t, len(m.lines), m.pageHeight())
	assert.Contains(t, m.View(), "Good Morning")

	next, _ = m.Update(key("j"))
	assert.Equal(t, 1, next.(Model).offset)

	next, _ = next.Update(key("G"))
	m = next.(Model)
	assert.Equal(t, m.maxOffset(), m.offset)

	next, _ = m.Update(key("k"))
	assert.Equal(t, m.maxOffset()-1, next.(Model).offset)

	next, _ = next.Update(key("g"))
	assert.Equal(t, 0, next.(Model).offset)
}

func TestModel_ErrorAndRetry(t *testing.T) {
	m := NewModel(context.Background(), SourceFunc(func(context.Context) (*types.Briefing, error) {
		return nil, errors.New("boom")
	}))

	next, _ := m.Update(RunFinishedMsg{Err: errors.New("boom")})
	m = next.(Model)
	assert.Equal(t, StateError, m.State)
	assert.Contains(t, m.View(), "boom")

	next, cmd := m.Update(key("r"))
	assert.Equal(t, StateRunning, next.(Model).State)
	assert.NotNil(t, cmd)
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), SourceFunc(func(context.Context) (*types.Briefing, error) { return nil, nil }))
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

type instantRunner struct{}

func (instantRunner) NewRunID() string { return "remote-1" }
func (instantRunner) Run(_ context.Context, p orchestrator.RunParams) (*orchestrator.Report, error) {
	return &orchestrator.Report{Briefing: &types.Briefing{RunID: p.RunID, GeneratedAt: time.Now()}}, nil
}

func TestClient_Run(t *testing.T) {
	srv := api.NewServer(instantRunner{}, ":0", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL + "/")
	c.interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "remote-1", b.RunID)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.StateComplete, status.State)
	assert.True(t, strings.HasPrefix(status.RunID, "remote"))
}
