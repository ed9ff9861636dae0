package module

import (
	"log/slog"
)

// Defaults are the process-wide fallback prompts and settings used when
// no module definition applies.
type Defaults struct {
	Prompts         Prompts
	InterviewLength int
	Temperature     float64
	Model           string
}

// Registry resolves module names to configurations. Resolution never
// fails: unknown names fall back to the configured default module, and
// a missing default falls back to a synthetic config built from the
// process defaults.
type Registry struct {
	modules       map[string]Config
	defaultModule string
	defaults      Defaults
	log           *slog.Logger
}

// NewRegistry builds a registry over the given module set.
func NewRegistry(modules map[string]Config, defaultModule string, defaults Defaults, log *slog.Logger) *Registry {
	if modules == nil {
		modules = make(map[string]Config)
	}
	return &Registry{
		modules:       modules,
		defaultModule: defaultModule,
		defaults:      defaults,
		log:           log,
	}
}

// Resolve returns the configuration for name along with the name
// actually used after fallback.
func (r *Registry) Resolve(name string) (string, Config) {
	if name == "" || !r.has(name) {
		r.log.Info("module not found, using default module",
			"module", name, "default", r.defaultModule)
		name = r.defaultModule
	}

	cfg, ok := r.modules[name]
	if !ok {
		r.log.Warn("no interview modules found, using default system prompts")
		return name, Config{
			Prompts: r.defaults.Prompts,
			Settings: Settings{
				InterviewLength: r.defaults.InterviewLength,
				Temperature:     r.defaults.Temperature,
				Model:           r.defaults.Model,
			},
		}
	}

	return name, r.normalize(cfg)
}

// Names lists the registered module names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	return names
}

func (r *Registry) has(name string) bool {
	_, ok := r.modules[name]
	return ok
}

// normalize fills gaps in a module definition from the process
// defaults so callers never see zero prompts or pacing.
func (r *Registry) normalize(cfg Config) Config {
	if cfg.Prompts.Initial == "" {
		cfg.Prompts.Initial = r.defaults.Prompts.Initial
	}
	if cfg.Prompts.FollowUp == "" {
		cfg.Prompts.FollowUp = r.defaults.Prompts.FollowUp
	}
	if cfg.Prompts.Summary == "" {
		cfg.Prompts.Summary = r.defaults.Prompts.Summary
	}
	if cfg.Settings.InterviewLength <= 0 {
		cfg.Settings.InterviewLength = r.defaults.InterviewLength
	}
	if cfg.Settings.Temperature == 0 {
		cfg.Settings.Temperature = r.defaults.Temperature
	}
	if cfg.Settings.Model == "" {
		cfg.Settings.Model = r.defaults.Model
	}
	return cfg
}
