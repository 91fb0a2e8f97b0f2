package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/billing-extractor/internal/application/registry"
	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/internal/testutil"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type fakeFactory struct {
	built   []string
	failFor string
}

func (f *fakeFactory) New(provider, model string) (service.LLMService, error) {
	if provider == f.failFor {
		return nil, apperror.NewConfiguration("missing credentials for "+provider, nil)
	}
	f.built = append(f.built, provider+"/"+model)
	return &testutil.FakeLLM{}, nil
}

func cfgWithModels(models map[string]config.ModelConfig) config.Config {
	var cfg config.Config
	cfg.Models = models
	return cfg
}

func TestFromConfig(t *testing.T) {
	factory := &fakeFactory{}
	cfg := cfgWithModels(map[string]config.ModelConfig{
		"default": {Provider: "openai", Model: "gpt-4o"},
		"local":   {Provider: "ollama", Model: "phi3:mini"},
	})

	reg, err := registry.FromConfig(cfg, factory, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"default", "local"}, reg.Names())
	assert.ElementsMatch(t, []string{"openai/gpt-4o", "ollama/phi3:mini"}, factory.built)

	h, err := reg.Get("local")
	require.NoError(t, err)
	assert.Equal(t, "ollama", h.Provider())
	assert.Equal(t, "phi3:mini", h.Model())
	assert.NotNil(t, h.LLM())

	assert.Same(t, mustGet(t, reg, "default"), reg.Default())
}

func TestFromConfig_MissingCredentials(t *testing.T) {
	cfg := cfgWithModels(map[string]config.ModelConfig{
		"default": {Provider: "openai", Model: "gpt-4o"},
	})

	reg, err := registry.FromConfig(cfg, &fakeFactory{failFor: "openai"}, logger.NewNopLogger())

	assert.Nil(t, reg)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestFromConfig_IncompleteModel(t *testing.T) {
	cfg := cfgWithModels(map[string]config.ModelConfig{
		"default": {Provider: "openai"},
	})

	_, err := registry.FromConfig(cfg, &fakeFactory{}, logger.NewNopLogger())

	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestNew_RequiresDefault(t *testing.T) {
	_, err := registry.New(registry.NewHandle("other", "fake", "m", &testutil.FakeLLM{}))
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := registry.New(
		registry.NewHandle("default", "fake", "a", &testutil.FakeLLM{}),
		registry.NewHandle("default", "fake", "b", &testutil.FakeLLM{}),
	)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestGet_UnknownModel(t *testing.T) {
	reg := testutil.NewRegistry(&testutil.FakeLLM{})

	h, err := reg.Get("does-not-exist")

	assert.Nil(t, h)
	assert.ErrorIs(t, err, apperror.ErrUnknownModel)
}

func mustGet(t *testing.T, reg *registry.Registry, name string) *registry.Handle {
	t.Helper()
	h, err := reg.Get(name)
	require.NoError(t, err)
	return h
}
