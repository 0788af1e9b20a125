// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package bridge connects the host to an optional third-party rendering
// module without a build-time dependency in either direction.
//
// The module registers a Provider under its name, the way database/sql
// drivers do, or exports one from a Go plugin. At startup Install looks up
// the configured module, checks its version, and derives a Capabilities set
// from the optional interfaces the module implements. Every failure is soft:
// the capability stays unset and the host keeps working without it.
//
// # Basic Usage
//
//	state := bridge.Install(cfg.Bridge, host, bridge.WithLogger(logger))
//	defer state.Close()
//	if state.Capabilities().Has(bridge.CapExtendedFluidData) {
//		// fluid data attributes are injected into vertex shaders
//	}
//	view = state.Adapter().ModelView(view)
package bridge

import (
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Capability names.
const (
	CapExtendedFluidData       = "extended-fluid-data"
	CapSecondaryLightingBuffer = "secondary-lighting-buffers"
)

// Capabilities is an immutable set of capability names.
type Capabilities struct {
	names []string
}

// NewCapabilities returns a set holding names.
func NewCapabilities(names ...string) Capabilities {
	s := slices.Clone(names)
	slices.Sort(s)
	return Capabilities{names: slices.Compact(s)}
}

// Has reports whether the capability is present.
func (c Capabilities) Has(name string) bool {
	_, ok := slices.BinarySearch(c.names, name)
	return ok
}

// Names returns the capability names in sorted order.
func (c Capabilities) Names() []string {
	return slices.Clone(c.names)
}

// Len returns the number of capabilities.
func (c Capabilities) Len() int { return len(c.names) }

// Fingerprint returns a canonical encoding of the set for cache keys.
func (c Capabilities) Fingerprint() string {
	return strings.Join(c.names, ",")
}

func (c Capabilities) with(name string) Capabilities {
	return NewCapabilities(append(slices.Clone(c.names), name)...)
}

// ProgramHandle identifies a program object compiled by the host.
type ProgramHandle uint32

// HostQuerier reports what the host's render backend supports.
type HostQuerier interface {
	QueryCapability(name string) bool
}

// HostQuerierFunc adapts a function to HostQuerier.
type HostQuerierFunc func(name string) bool

// QueryCapability implements HostQuerier.
func (f HostQuerierFunc) QueryCapability(name string) bool { return f(name) }

// Hooks are the host calls available to the module.
type Hooks interface {
	// LookupProgram returns the compiled program for a pack program name.
	LookupProgram(name string) (ProgramHandle, bool)
}

// Provider opens the module. Open is called once per Install.
type Provider interface {
	Open(hooks Hooks) (Module, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(hooks Hooks) (Module, error)

// Open implements Provider.
func (f ProviderFunc) Open(hooks Hooks) (Module, error) { return f(hooks) }

// Module is an opened rendering module. Optional features are discovered
// through the interfaces below.
type Module interface {
	Name() string
	// Version is a semantic version such as "1.4.0".
	Version() string
	Close() error
}

// FluidLayout describes the per-vertex fluid data the module supplies.
type FluidLayout struct {
	// Offset and Stride are in bytes within the vertex buffer.
	Offset int
	Stride int
	// Components is the number of floats, at most 4.
	Components int
}

// FluidDataSource is implemented by modules that supply extended fluid data.
type FluidDataSource interface {
	FluidDataLayout() FluidLayout
}

// SecondaryLightingSource is implemented by modules that render a secondary
// lighting buffer.
type SecondaryLightingSource interface {
	// SecondaryLightTexture returns the texture the host binds to the
	// secondary lighting sampler.
	SecondaryLightTexture() uint32
}

// ModelViewAdjuster is implemented by modules that modify the model-view
// matrix, e.g. for camera-relative rendering.
type ModelViewAdjuster interface {
	AdjustModelView(view mgl32.Mat4) mgl32.Mat4
}

// CameraOffsetSource is implemented by modules that render relative to a
// shifted origin. The adapter translates the model-view matrix by the
// negated offset.
type CameraOffsetSource interface {
	CameraOffset() mgl32.Vec3
}

// ProgramRedirector is implemented by modules that replace some pack
// programs with their own.
type ProgramRedirector interface {
	RedirectProgram(name string) (string, bool)
}
