// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bridge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/shaderpack/config"
)

// Install failures. Install logs them; they never reach the caller.
var (
	ErrModuleAbsent       = errors.New("module not present")
	ErrIncompatible       = errors.New("incompatible module version")
	ErrPluginUnsupported  = errors.New("plugins are not supported on this platform")
	ErrModulePanicked     = errors.New("module panicked")
	ErrCapabilityDeclined = errors.New("host declined capability")
)

type installOptions struct {
	logger *slog.Logger
	hooks  Hooks
}

// InstallOption configures Install.
type InstallOption func(*installOptions)

// WithLogger sets the logger for install outcomes.
func WithLogger(l *slog.Logger) InstallOption {
	return func(o *installOptions) { o.logger = l }
}

// WithHooks sets the host calls handed to the module.
func WithHooks(h Hooks) InstallOption {
	return func(o *installOptions) { o.hooks = h }
}

type noHooks struct{}

func (noHooks) LookupProgram(string) (ProgramHandle, bool) { return 0, false }

// Install looks up the configured module and returns the resulting state.
// It never fails: a missing, broken or outdated module yields a state with
// no capabilities and the pass-through adapter.
func Install(cfg config.Bridge, host HostQuerier, opts ...InstallOption) *State {
	o := installOptions{logger: slog.Default(), hooks: noHooks{}}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With("component", "bridge")

	if cfg.Module == "" && cfg.Plugin == "" {
		log.Debug("no rendering module configured")
		return NoOp()
	}

	p, err := findProvider(cfg)
	if err != nil {
		log.Info("rendering module unavailable", "module", cfg.Module, "reason", err)
		return NoOp()
	}

	m, err := open(p, o.hooks)
	if err != nil {
		log.Warn("rendering module failed to open", "module", cfg.Module, "reason", err)
		return NoOp()
	}

	st, err := inspect(m, cfg, host, log)
	if err != nil {
		log.Warn("rendering module rejected", "module", cfg.Module, "reason", err)
		closeModule(m, cfg.Module, log)
		return NoOp()
	}
	return st
}

// inspect checks the module's version and derives its capabilities. Every
// call into the module or the host runs under one recover: a panic rejects
// the module like any other failure.
func inspect(m Module, cfg config.Bridge, host HostQuerier, log *slog.Logger) (st *State, err error) {
	defer func() {
		if r := recover(); r != nil {
			st, err = nil, fmt.Errorf("%w: %v", ErrModulePanicked, r)
		}
	}()

	if err := checkVersion(m, cfg.MinVersion); err != nil {
		return nil, fmt.Errorf("version %s: %w", m.Version(), err)
	}

	caps := Capabilities{}
	offer := func(name string, implemented bool) {
		switch {
		case !implemented:
			log.Info("capability absent", "capability", name, "reason", "not implemented by module")
		case host == nil || !host.QueryCapability(name):
			log.Info("capability absent", "capability", name, "reason", ErrCapabilityDeclined)
		default:
			caps = caps.with(name)
		}
	}
	_, fluid := m.(FluidDataSource)
	offer(CapExtendedFluidData, fluid)
	_, secondary := m.(SecondaryLightingSource)
	offer(CapSecondaryLightingBuffer, secondary)

	log.Info("rendering module installed", "module", m.Name(), "version", m.Version(), "capabilities", caps.Names())
	return &State{
		caps:    caps,
		adapter: &moduleAdapter{m: m, log: log},
		module:  m,
	}, nil
}

func findProvider(cfg config.Bridge) (Provider, error) {
	if cfg.Plugin != "" {
		return openPlugin(cfg.Plugin)
	}
	p, ok := lookupProvider(cfg.Module)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleAbsent, cfg.Module)
	}
	return p, nil
}

// open calls the provider, converting a panic into an error.
func open(p Provider, hooks Hooks) (m Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%w: %v", ErrModulePanicked, r)
		}
	}()
	m, err = p.Open(hooks)
	if err == nil && m == nil {
		err = fmt.Errorf("%w: provider returned no module", ErrModuleAbsent)
	}
	return m, err
}

func checkVersion(m Module, minVersion string) error {
	if minVersion == "" {
		return nil
	}
	want, err := config.ParseSemver(minVersion)
	if err != nil {
		return err
	}
	got, err := config.ParseSemver(m.Version())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	if got.Less(want) {
		return fmt.Errorf("%w: %s is older than %s", ErrIncompatible, got, want)
	}
	return nil
}

// closeModule closes a rejected module. name is the configured name; the
// module itself is not asked for it.
func closeModule(m Module, name string, log *slog.Logger) {
	if err := safeClose(m); err != nil {
		log.Warn("rendering module close failed", "module", name, "error", err)
	}
}

// safeClose closes m, converting a panic into an error.
func safeClose(m Module) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w on close: %v", ErrModulePanicked, r)
		}
	}()
	return m.Close()
}
