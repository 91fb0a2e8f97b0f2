package registry

import (
	"fmt"
	"sort"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
	"go.uber.org/zap"
)

// Handle is an immutable provider/model pair. The registry owns it; callers
// only borrow it for the duration of a request.
type Handle struct {
	name     string
	provider string
	model    string
	llm      service.LLMService
}

func NewHandle(name, provider, model string, llm service.LLMService) *Handle {
	return &Handle{name: name, provider: provider, model: model, llm: llm}
}

func (h *Handle) Name() string            { return h.name }
func (h *Handle) Provider() string        { return h.provider }
func (h *Handle) Model() string           { return h.model }
func (h *Handle) LLM() service.LLMService { return h.llm }
func (h *Handle) String() string          { return fmt.Sprintf("%s (%s/%s)", h.name, h.provider, h.model) }

// ProviderFactory builds a provider client for one configured model. It must
// return an apperror.ErrConfiguration error when credentials are missing.
type ProviderFactory interface {
	New(provider, model string) (service.LLMService, error)
}

// Registry maps logical model names to handles. It is read-only once built,
// so concurrent lookups need no locking.
type Registry struct {
	handles map[string]*Handle
}

func New(handles ...*Handle) (*Registry, error) {
	r := &Registry{handles: make(map[string]*Handle, len(handles))}
	for _, h := range handles {
		if h == nil || h.llm == nil {
			return nil, apperror.NewConfiguration("model handle has no provider client", nil)
		}
		if _, dup := r.handles[h.name]; dup {
			return nil, apperror.NewConfiguration(fmt.Sprintf("model '%s' registered twice", h.name), nil)
		}
		r.handles[h.name] = h
	}
	if _, ok := r.handles[config.DefaultModelName]; !ok {
		return nil, apperror.NewConfiguration("no 'default' model registered", nil)
	}
	return r, nil
}

// FromConfig builds one handle per entry of cfg.Models.
func FromConfig(cfg config.Config, factory ProviderFactory, log logger.Logger) (*Registry, error) {
	names := make([]string, 0, len(cfg.Models))
	for name := range cfg.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	handles := make([]*Handle, 0, len(names))
	for _, name := range names {
		mc := cfg.Models[name]
		if mc.Provider == "" || mc.Model == "" {
			return nil, apperror.NewConfiguration(fmt.Sprintf("model '%s' needs both provider and model", name), nil)
		}
		client, err := factory.New(mc.Provider, mc.Model)
		if err != nil {
			return nil, err
		}
		handles = append(handles, NewHandle(name, mc.Provider, mc.Model, client))
		log.Info("Registered model", zap.String("name", name), zap.String("provider", mc.Provider), zap.String("model", mc.Model))
	}
	return New(handles...)
}

func (r *Registry) Get(name string) (*Handle, error) {
	h, ok := r.handles[name]
	if !ok {
		return nil, apperror.NewUnknownModel(name)
	}
	return h, nil
}

func (r *Registry) Default() *Handle {
	return r.handles[config.DefaultModelName]
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
