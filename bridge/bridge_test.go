// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bridge

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderpack/config"
)

type baseModule struct {
	version string
	closed  int
}

func (m *baseModule) Name() string    { return "fake" }
func (m *baseModule) Version() string { return m.version }
func (m *baseModule) Close() error {
	m.closed++
	return nil
}

type fluidModule struct{ baseModule }

func (*fluidModule) FluidDataLayout() FluidLayout {
	return FluidLayout{Offset: 32, Stride: 48, Components: 4}
}

type fullModule struct {
	fluidModule
	offset mgl32.Vec3
}

func (*fullModule) SecondaryLightTexture() uint32 { return 7 }

func (m *fullModule) CameraOffset() mgl32.Vec3 { return m.offset }

func (*fullModule) RedirectProgram(name string) (string, bool) {
	if name == "gbuffers_water" {
		return "fluid_water", true
	}
	return "", false
}

type panicModule struct{ baseModule }

func (*panicModule) FluidDataLayout() FluidLayout { panic("layout") }

func (*panicModule) AdjustModelView(mgl32.Mat4) mgl32.Mat4 { panic("view") }

func (*panicModule) RedirectProgram(string) (string, bool) { panic("redirect") }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func allowAll(string) bool { return true }

// registerModule registers m under a test-unique name.
func registerModule(t *testing.T, m Module) string {
	t.Helper()
	name := "test-" + t.Name()
	Register(name, ProviderFunc(func(Hooks) (Module, error) { return m, nil }))
	t.Cleanup(func() { unregister(name) })
	return name
}

func TestCapabilities(t *testing.T) {
	caps := NewCapabilities(CapSecondaryLightingBuffer, CapExtendedFluidData, CapExtendedFluidData)
	assert.Equal(t, 2, caps.Len())
	assert.True(t, caps.Has(CapExtendedFluidData))
	assert.False(t, caps.Has("shadow-maps"))
	assert.Equal(t, "extended-fluid-data,secondary-lighting-buffers", caps.Fingerprint())

	var empty Capabilities
	assert.False(t, empty.Has(CapExtendedFluidData))
	assert.Empty(t, empty.Fingerprint())
}

func TestRegister(t *testing.T) {
	p := ProviderFunc(func(Hooks) (Module, error) { return nil, nil })
	Register("test-register", p)
	t.Cleanup(func() { unregister("test-register") })

	assert.Contains(t, Providers(), "test-register")
	assert.Panics(t, func() { Register("test-register", p) })
	assert.Panics(t, func() { Register("test-nil", nil) })
}

func TestInstallWithoutModule(t *testing.T) {
	state := Install(config.Bridge{}, HostQuerierFunc(allowAll), WithLogger(quietLogger()))
	assert.False(t, state.Active())
	assert.Zero(t, state.Capabilities().Len())

	view := mgl32.Translate3D(1, 2, 3)
	assert.Equal(t, view, state.Adapter().ModelView(view))
	assert.Equal(t, "gbuffers_water", state.Adapter().Program("gbuffers_water"))
	_, ok := state.Adapter().FluidLayout()
	assert.False(t, ok)
	assert.NoError(t, state.Close())
}

func TestInstallCapabilities(t *testing.T) {
	tests := []struct {
		name   string
		module Module
		host   func(string) bool
		want   []string
	}{
		{
			name:   "module without optional features",
			module: &baseModule{version: "1.0.0"},
			host:   allowAll,
			want:   []string{},
		},
		{
			name:   "fluid only",
			module: &fluidModule{baseModule{version: "1.0.0"}},
			host:   allowAll,
			want:   []string{CapExtendedFluidData},
		},
		{
			name:   "everything",
			module: &fullModule{fluidModule: fluidModule{baseModule{version: "2.1.0"}}},
			host:   allowAll,
			want:   []string{CapExtendedFluidData, CapSecondaryLightingBuffer},
		},
		{
			name:   "host declines secondary lighting",
			module: &fullModule{fluidModule: fluidModule{baseModule{version: "2.1.0"}}},
			host:   func(name string) bool { return name != CapSecondaryLightingBuffer },
			want:   []string{CapExtendedFluidData},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := registerModule(t, tt.module)
			state := Install(config.Bridge{Module: name, MinVersion: "1.0"}, HostQuerierFunc(tt.host), WithLogger(quietLogger()))
			assert.True(t, state.Active())
			assert.ElementsMatch(t, tt.want, state.Capabilities().Names())
		})
	}
}

func TestInstallFailuresAreSoft(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	old := &fluidModule{baseModule{version: "0.9.5"}}
	oldName := registerModule(t, old)
	state := Install(config.Bridge{Module: oldName, MinVersion: "1.2.0"}, HostQuerierFunc(allowAll), WithLogger(logger))
	assert.False(t, state.Active())
	assert.Zero(t, state.Capabilities().Len())
	assert.Equal(t, 1, old.closed, "a rejected module is closed")
	assert.Contains(t, logs.String(), "incompatible module version")

	state = Install(config.Bridge{Module: "not-installed"}, HostQuerierFunc(allowAll), WithLogger(logger))
	assert.False(t, state.Active())
	assert.Contains(t, logs.String(), "module not present")

	panicky := "test-panicking-provider"
	Register(panicky, ProviderFunc(func(Hooks) (Module, error) { panic("boom") }))
	t.Cleanup(func() { unregister(panicky) })
	state = Install(config.Bridge{Module: panicky}, HostQuerierFunc(allowAll), WithLogger(logger))
	assert.False(t, state.Active())
	assert.Contains(t, logs.String(), "module panicked")

	failing := "test-failing-provider"
	Register(failing, ProviderFunc(func(Hooks) (Module, error) { return nil, errors.New("no gpu") }))
	t.Cleanup(func() { unregister(failing) })
	state = Install(config.Bridge{Module: failing}, HostQuerierFunc(allowAll), WithLogger(logger))
	assert.False(t, state.Active())

	state = Install(config.Bridge{Plugin: "/nonexistent/module.so"}, HostQuerierFunc(allowAll), WithLogger(logger))
	assert.False(t, state.Active())
}

// panickyModule panics from whichever method is named in at.
type panickyModule struct {
	fluidModule
	at string
}

func (m *panickyModule) Name() string {
	if m.at == "name" {
		panic("name")
	}
	return "fake"
}

func (m *panickyModule) Version() string {
	if m.at == "version" {
		panic("version")
	}
	return "1.0.0"
}

func (m *panickyModule) Close() error {
	m.closed++
	if m.at == "close" {
		panic("close")
	}
	return nil
}

func TestInstallRecoversModulePanics(t *testing.T) {
	tests := []struct {
		name string
		at   string
		host HostQuerier
	}{
		{"version", "version", HostQuerierFunc(allowAll)},
		{"name", "name", HostQuerierFunc(allowAll)},
		{"host query", "", HostQuerierFunc(func(string) bool { panic("query") })},
		{"query then close", "close", HostQuerierFunc(func(string) bool { panic("query") })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			m := &panickyModule{at: tt.at}
			name := registerModule(t, m)

			var state *State
			require.NotPanics(t, func() {
				state = Install(config.Bridge{Module: name, MinVersion: "1.0.0"}, tt.host,
					WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
			})
			assert.False(t, state.Active())
			assert.Zero(t, state.Capabilities().Len())
			assert.Equal(t, 1, m.closed, "a rejected module is closed")
			assert.Contains(t, logs.String(), "module panicked")
		})
	}
}

func TestStateCloseRecoversPanic(t *testing.T) {
	m := &panickyModule{at: "close"}
	name := registerModule(t, m)
	state := Install(config.Bridge{Module: name}, HostQuerierFunc(allowAll), WithLogger(quietLogger()))
	require.True(t, state.Active())

	var err error
	require.NotPanics(t, func() { err = state.Close() })
	assert.ErrorIs(t, err, ErrModulePanicked)
	assert.NoError(t, state.Close(), "second close is a no-op")
	assert.Equal(t, 1, m.closed)
}

type programTable map[string]ProgramHandle

func (p programTable) LookupProgram(name string) (ProgramHandle, bool) {
	h, ok := p[name]
	return h, ok
}

func TestInstallPassesHooks(t *testing.T) {
	var got ProgramHandle
	name := "test-hooks"
	Register(name, ProviderFunc(func(h Hooks) (Module, error) {
		got, _ = h.LookupProgram("composite")
		return &baseModule{version: "1.0.0"}, nil
	}))
	t.Cleanup(func() { unregister(name) })

	Install(config.Bridge{Module: name}, HostQuerierFunc(allowAll),
		WithLogger(quietLogger()), WithHooks(programTable{"composite": 42}))
	assert.Equal(t, ProgramHandle(42), got)
}

func TestModuleAdapter(t *testing.T) {
	m := &fullModule{
		fluidModule: fluidModule{baseModule{version: "2.0.0"}},
		offset:      mgl32.Vec3{1, 2, 3},
	}
	state := Install(config.Bridge{Module: registerModule(t, m)}, HostQuerierFunc(allowAll), WithLogger(quietLogger()))
	a := state.Adapter()

	view := a.ModelView(mgl32.Ident4())
	assert.Equal(t, mgl32.Vec4{-1, -2, -3, 1}, view.Col(3))

	layout, ok := a.FluidLayout()
	require.True(t, ok)
	assert.Equal(t, FluidLayout{Offset: 32, Stride: 48, Components: 4}, layout)

	tex, ok := a.SecondaryLightTexture()
	require.True(t, ok)
	assert.Equal(t, uint32(7), tex)

	assert.Equal(t, "fluid_water", a.Program("gbuffers_water"))
	assert.Equal(t, "gbuffers_terrain", a.Program("gbuffers_terrain"))

	require.NoError(t, state.Close())
	require.NoError(t, state.Close())
	assert.Equal(t, 1, m.closed)
}

func TestModuleAdapterRecoversPanics(t *testing.T) {
	m := &panicModule{baseModule{version: "1.0.0"}}
	state := Install(config.Bridge{Module: registerModule(t, m)}, HostQuerierFunc(allowAll), WithLogger(quietLogger()))
	a := state.Adapter()

	view := mgl32.Translate3D(4, 5, 6)
	assert.Equal(t, view, a.ModelView(view))
	_, ok := a.FluidLayout()
	assert.False(t, ok)
	assert.Equal(t, "final", a.Program("final"))
}

func TestNewState(t *testing.T) {
	state := NewState(NewCapabilities(CapExtendedFluidData))
	assert.True(t, state.Capabilities().Has(CapExtendedFluidData))
	assert.False(t, state.Active())
	assert.Nil(t, state.Module())
}
