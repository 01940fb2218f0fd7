package providers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/upb/llm-gateway/services"
)

// DefaultRoute is used when a model has no route of its own
const DefaultRoute = "default"

var validate = validator.New()

// Registration is a batch of providers and routes merged into the registry
type Registration struct {
	Providers map[string]ProviderConfig `json:"providers,omitempty" yaml:"providers"`
	Routing   map[string]Route          `json:"routing,omitempty" yaml:"routing"`
}

// Validate checks every provider config and route step in the batch
func (reg Registration) Validate() error {
	for id, cfg := range reg.Providers {
		if err := validate.Struct(cfg); err != nil {
			return invalidRegistration(fmt.Errorf("provider %q: %w", id, err))
		}
	}
	for model, route := range reg.Routing {
		for i, step := range route {
			if err := validate.Struct(step); err != nil {
				return invalidRegistration(fmt.Errorf("route %q step %d: %w", model, i, err))
			}
		}
	}
	return nil
}

func invalidRegistration(err error) error {
	return services.WrapError(services.ErrorTypeValidation, services.ErrInvalidRegistry.Message, err)
}

// Plan is a request-scoped snapshot of a route and the providers it may use
type Plan struct {
	Model     string
	Steps     []RouteStep
	Providers map[string]ProviderConfig
}

// Provider looks up a provider config in the plan
func (p Plan) Provider(id string) (ProviderConfig, bool) {
	cfg, ok := p.Providers[id]
	return cfg, ok
}

// Registry holds provider configs and the route table
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderConfig
	routes    map[string]Route
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]ProviderConfig),
		routes:    make(map[string]Route),
	}
}

// Register merges providers by identifier and routes by model name,
// overwriting on conflict. An invalid batch is rejected as a whole.
func (r *Registry) Register(reg Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, cfg := range reg.Providers {
		r.providers[id] = cfg
	}
	for model, route := range reg.Routing {
		r.routes[model] = append(Route(nil), route...)
	}
	return nil
}

// Resolve builds the plan for model. Unknown models fall back to the default
// route; with no default route the plan has no steps. overrides extend or
// replace static providers for this plan only.
func (r *Registry) Resolve(model string, overrides map[string]ProviderConfig) Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[model]
	if !ok {
		route = r.routes[DefaultRoute]
	}

	providers := make(map[string]ProviderConfig, len(r.providers)+len(overrides))
	for id, cfg := range r.providers {
		providers[id] = cfg
	}
	for id, cfg := range overrides {
		providers[id] = cfg
	}

	return Plan{
		Model:     model,
		Steps:     append([]RouteStep(nil), route...),
		Providers: providers,
	}
}

// Provider returns a statically registered provider
func (r *Registry) Provider(id string) (ProviderConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.providers[id]
	return cfg, ok
}

// ProviderIDs returns the registered provider identifiers, sorted
func (r *Registry) ProviderIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Routes returns a copy of the route table
func (r *Registry) Routes() map[string]Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string]Route, len(r.routes))
	for model, route := range r.routes {
		routes[model] = append(Route(nil), route...)
	}
	return routes
}

// Built-in provider identifiers
const (
	ProviderGroq     = "groq"
	ProviderCerebras = "cerebras"
)

// DefaultRegistration returns the built-in providers and routes. Keys are
// the credentials read from the environment at startup.
func DefaultRegistration(groqKey, cerebrasKey string) Registration {
	route := func(groqModel, cerebrasModel string) Route {
		return Route{
			{ProviderID: ProviderGroq, TargetModel: groqModel},
			{ProviderID: ProviderCerebras, TargetModel: cerebrasModel},
		}
	}

	return Registration{
		Providers: map[string]ProviderConfig{
			ProviderGroq: {
				Name: "Groq System",
				URL:  "https://api.groq.com/openai/v1/chat/completions",
				Key:  groqKey,
			},
			ProviderCerebras: {
				Name: "Cerebras System",
				URL:  "https://api.cerebras.ai/v1/chat/completions",
				Key:  cerebrasKey,
			},
		},
		Routing: map[string]Route{
			"llama3-8b":           route("llama-3.1-8b-instant", "llama3.1-8b"),
			"llama3-70b":          route("llama-3.3-70b-versatile", "llama3.1-70b"),
			"openai/gpt-oss-120b": route("openai/gpt-oss-120b", "openai/gpt-oss-120b"),
			DefaultRoute:          route("llama-3.1-8b-instant", "llama3.1-8b"),
		},
	}
}
