// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locatedErr struct {
	loc Location
	msg string
}

func (e *locatedErr) Error() string      { return e.loc.String() + ": " + e.msg }
func (e *locatedErr) Location() Location { return e.loc }
func (e *locatedErr) Detail() string     { return e.msg }

type errList []error

func (l errList) Error() string   { return fmt.Sprintf("%d errors", len(l)) }
func (l errList) Unwrap() []error { return l }

func TestLocationString(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{}, "<unknown>"},
		{Location{File: "a.fsh"}, "a.fsh"},
		{Location{File: "a.fsh", Line: 3}, "a.fsh:3"},
		{Location{File: "a.fsh", Line: 3, Column: 7}, "a.fsh:3:7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.loc.String())
	}
}

func TestListCounts(t *testing.T) {
	var l List
	l.Infof("transform", Location{}, "renamed %s", "x")
	l.Warnf("link", Location{}, "unused")
	assert.False(t, l.HasErrors())
	l.Errorf("parse", Location{File: "f", Line: 1}, "bad")

	assert.True(t, l.HasErrors())
	assert.Equal(t, 1, l.Count(SeverityInfo))
	assert.Equal(t, 1, l.Count(SeverityWarning))
	require.Len(t, l.Errors(), 1)
	assert.Equal(t, "bad", l.Errors()[0].Message)
}

func TestCloneIsIndependent(t *testing.T) {
	l := List{{Message: "a"}}
	c := l.Clone()
	c[0].Message = "b"
	assert.Equal(t, "a", l[0].Message)
	assert.Nil(t, List(nil).Clone())
}

func TestFromErrorUsesLocator(t *testing.T) {
	inner := &locatedErr{loc: Location{File: "x.vsh", Line: 4, Column: 2}, msg: "boom"}
	wrapped := fmt.Errorf("preprocess: %w", inner)

	got := FromError("preprocess", Location{File: "fallback"}, wrapped)
	require.Len(t, got, 1)
	assert.Equal(t, SeverityError, got[0].Severity)
	assert.Equal(t, inner.loc, got[0].Location)
	assert.Equal(t, "boom", got[0].Message)
}

func TestFromErrorFallback(t *testing.T) {
	got := FromError("gpu", Location{File: "prog"}, errors.New("link failed"))
	require.Len(t, got, 1)
	assert.Equal(t, "prog", got[0].Location.File)
	assert.Equal(t, "link failed", got[0].Message)
	assert.Nil(t, FromError("gpu", Location{}, nil))
}

func TestFromErrorFlattensLists(t *testing.T) {
	err := errList{
		&locatedErr{loc: Location{File: "a", Line: 1}, msg: "first"},
		&locatedErr{loc: Location{File: "a", Line: 9}, msg: "second"},
	}
	got := FromError("parse", Location{}, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Message)
	assert.Equal(t, 9, got[1].Location.Line)
}
