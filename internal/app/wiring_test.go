package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/document"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/extract"
	"github.com/joseph-ayodele/venue-planner/internal/llm"
)

func testConfig(t *testing.T) *common.Config {
	cfg := common.DefaultConfig()
	cfg.Local.SQLitePath = filepath.Join(t.TempDir(), "planner.db")
	return cfg
}

func TestOpenLocal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := common.DiscardLogger()

	local, cleanup, err := OpenLocal(ctx, cfg, logger)
	require.NoError(t, err)
	st := local.Load(ctx)
	assert.True(t, st.Empty())

	st.Venues = append(st.Venues, entity.Venue{ID: "v1", VenueFields: entity.VenueFields{Name: "Oak Barn"}})
	require.NoError(t, local.Save(ctx, st))
	cleanup()

	local, cleanup, err = OpenLocal(ctx, cfg, logger)
	require.NoError(t, err)
	defer cleanup()
	got := local.Load(ctx)
	require.Len(t, got.Venues, 1)
	assert.Equal(t, "Oak Barn", got.Venues[0].Name)
}

func TestOpenRemote_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sync.Backend = "none"
	remote, cleanup, err := OpenRemote(context.Background(), cfg, common.DiscardLogger())
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, remote)
}

func TestOpenRemote_RejectsIncompleteConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sync.Backend = "s3"
	_, _, err := OpenRemote(context.Background(), cfg, common.DiscardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()
	logger := common.DiscardLogger()

	for _, provider := range []string{"openai", "anthropic", "gemini"} {
		gen, err := NewGenerator(ctx, common.LLMConfig{Provider: provider, APIKey: "k", Model: "m-" + provider}, logger)
		require.NoError(t, err, provider)
		assert.Equal(t, "m-"+provider, gen.Model(), provider)
	}

	_, err := NewGenerator(ctx, common.LLMConfig{Provider: "llama", APIKey: "k"}, logger)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNewExtractors(t *testing.T) {
	gen, err := NewGenerator(context.Background(), common.LLMConfig{Provider: "openai", APIKey: "k"}, common.DiscardLogger())
	require.NoError(t, err)
	ex, err := NewExtractors(gen, common.LLMConfig{}, common.OCRConfig{}, common.DiscardLogger())
	require.NoError(t, err)
	assert.NotNil(t, ex.Venues)
	assert.NotNil(t, ex.Vendors)

	ex, err = NewExtractors(gen, common.LLMConfig{}, common.OCRConfig{Enabled: true}, common.DiscardLogger())
	require.NoError(t, err)
	assert.NotNil(t, ex.Venues)
}

type emptyGenerator struct{}

func (emptyGenerator) Generate(context.Context, llm.Request) ([]byte, error) {
	return []byte(`{"venues":[]}`), nil
}

func (emptyGenerator) Model() string { return "empty" }

func TestNewExtractors_AllowEmpty(t *testing.T) {
	ctx := context.Background()
	f := document.NewFile("floorplan.pdf", []byte("%PDF"))

	ex, err := NewExtractors(emptyGenerator{}, common.LLMConfig{}, common.OCRConfig{}, common.DiscardLogger())
	require.NoError(t, err)
	_, err = ex.Venues.Extract(ctx, f)
	assert.ErrorIs(t, err, extract.ErrNoRecords)

	ex, err = NewExtractors(emptyGenerator{}, common.LLMConfig{AllowEmpty: true}, common.OCRConfig{}, common.DiscardLogger())
	require.NoError(t, err)
	recs, err := ex.Venues.Extract(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

type memRemote struct {
	doc []byte
}

func (m *memRemote) Name() string { return "mem" }

func (m *memRemote) Get(context.Context) ([]byte, error) {
	if m.doc == nil {
		return nil, common.ErrNotFound
	}
	return m.doc, nil
}

func (m *memRemote) Put(_ context.Context, p []byte) error {
	m.doc = p
	return nil
}

func (m *memRemote) Ping(context.Context) error { return nil }

func TestLazyRemote_RetriesOpen(t *testing.T) {
	ctx := context.Background()
	attempts, closed := 0, 0
	mem := &memRemote{}
	lr := newLazyRemote("mem", func(context.Context) (Pinger, Cleanup, error) {
		attempts++
		if attempts == 1 {
			return nil, noop, errors.New("connection refused")
		}
		return mem, func() { closed++ }, nil
	}, common.DiscardLogger())

	_, err := lr.Get(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	require.NoError(t, lr.Put(ctx, []byte(`{}`)))
	got, err := lr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
	assert.Equal(t, 2, attempts)

	lr.Close()
	assert.Equal(t, 1, closed)
}
