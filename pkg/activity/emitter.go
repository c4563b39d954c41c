package activity

import (
	"context"
)

// DefaultChannel tags events emitted without an explicit channel.
const DefaultChannel = "dashboard"

// Config toggles activity emission.
type Config struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED" envDefault:"true"`
	Channel string `yaml:"channel" env:"CHANNEL"`
}

// Emitter sends events to hooks when enabled.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

// NewEmitter builds an emitter over hooks.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &Emitter{hooks: hooks, cfg: cfg}
}

// Enabled reports whether events will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

// Emit forwards evt to the hooks.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if !e.Enabled() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = e.cfg.Channel
	}
	return e.hooks.Notify(ctx, evt)
}
