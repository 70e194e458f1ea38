package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(id string, priority int, enabled bool) ModelDescriptor {
	return ModelDescriptor{
		ID:                id,
		DisplayName:       id,
		TokensPerMinute:   15000,
		RequestsPerMinute: 30,
		MaxOutputTokens:   8192,
		Priority:          priority,
		Enabled:           enabled,
		Family:            FamilyGemma,
	}
}

func TestActiveCascadeOrderingAndFiltering(t *testing.T) {
	cat, err := New([]ModelDescriptor{
		descriptor("third", 30, true),
		descriptor("disabled", 1, false),
		descriptor("first", 10, true),
		descriptor("second", 20, true),
	})
	require.NoError(t, err)

	cascade := cat.ActiveCascade()
	require.Len(t, cascade, 3)
	assert.Equal(t, "first", cascade[0].ID)
	assert.Equal(t, "second", cascade[1].ID)
	assert.Equal(t, "third", cascade[2].ID)
	for _, m := range cascade {
		assert.True(t, m.Enabled)
	}
}

func TestActiveCascadeTiesKeepInsertionOrder(t *testing.T) {
	cat, err := New([]ModelDescriptor{
		descriptor("a", 5, true),
		descriptor("b", 5, true),
		descriptor("c", 5, true),
	})
	require.NoError(t, err)

	cascade := cat.ActiveCascade()
	require.Len(t, cascade, 3)
	assert.Equal(t, "a", cascade[0].ID)
	assert.Equal(t, "b", cascade[1].ID)
	assert.Equal(t, "c", cascade[2].ID)
}

func TestNewRejectsInvalidDescriptors(t *testing.T) {
	cases := []struct {
		name string
		d    ModelDescriptor
	}{
		{"missing id", ModelDescriptor{DisplayName: "x", TokensPerMinute: 1, RequestsPerMinute: 1, MaxOutputTokens: 1, Family: FamilyGemma}},
		{"zero tpm", ModelDescriptor{ID: "x", DisplayName: "x", RequestsPerMinute: 1, MaxOutputTokens: 1, Family: FamilyGemma}},
		{"zero rpm", ModelDescriptor{ID: "x", DisplayName: "x", TokensPerMinute: 1, MaxOutputTokens: 1, Family: FamilyGemma}},
		{"zero output tokens", ModelDescriptor{ID: "x", DisplayName: "x", TokensPerMinute: 1, RequestsPerMinute: 1, Family: FamilyGemma}},
		{"missing display name", ModelDescriptor{ID: "x", TokensPerMinute: 1, RequestsPerMinute: 1, MaxOutputTokens: 1, Family: FamilyGemma}},
		{"unknown family", ModelDescriptor{ID: "x", DisplayName: "x", TokensPerMinute: 1, RequestsPerMinute: 1, MaxOutputTokens: 1, Family: "mistral"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New([]ModelDescriptor{tc.d})
			assert.Error(t, err)
		})
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New([]ModelDescriptor{
		descriptor("dup", 1, true),
		descriptor("dup", 2, true),
	})
	assert.ErrorContains(t, err, "duplicate model id")
}

func TestEmptyCascadeWhenAllDisabled(t *testing.T) {
	cat, err := New([]ModelDescriptor{descriptor("off", 1, false)})
	require.NoError(t, err)
	assert.Empty(t, cat.ActiveCascade())
	assert.Len(t, cat.Descriptors(), 1)
}

func TestDefaultCatalog(t *testing.T) {
	cat := Default()
	cascade := cat.ActiveCascade()
	require.NotEmpty(t, cascade)

	for i := 1; i < len(cascade); i++ {
		assert.LessOrEqual(t, cascade[i-1].Priority, cascade[i].Priority)
	}
	assert.Equal(t, "gemma-3-27b-it", cascade[0].ID)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	data := []byte(`models:
  - id: gemma-3-27b-it
    display_name: Gemma 3 27B
    tokens_per_minute: 15000
    requests_per_minute: 30
    max_output_tokens: 8192
    priority: 1
    enabled: true
    family: gemma
  - id: gemini-2.0-flash
    display_name: Gemini 2.0 Flash
    tokens_per_minute: 1000000
    requests_per_minute: 15
    max_output_tokens: 8192
    priority: 2
    enabled: false
    family: gemini
`)
	require.NoError(t, os.WriteFile(path, data, 0600))

	cat, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cat.ActiveCascade(), 1)
	assert.Equal(t, "gemma-3-27b-it", cat.ActiveCascade()[0].ID)
	assert.Len(t, cat.Descriptors(), 2)
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: []\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cat, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.NotEmpty(t, cat.ActiveCascade())

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
