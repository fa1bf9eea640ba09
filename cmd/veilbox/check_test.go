package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		wantErr    bool
	}{
		{name: "empty is no filter", expression: "", wantErr: false},
		{name: "state comparison", expression: "state == 'denied'", wantErr: false},
		{name: "kind and state", expression: "kind == 'read' and state != 'granted'", wantErr: false},
		{name: "invalid syntax", expression: "invalid syntax ((", wantErr: true},
		{name: "non-boolean result", expression: "kind", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := compileFilter(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid --filter expression")
				return
			}
			require.NoError(t, err)
			if tt.expression == "" {
				assert.Nil(t, program)
			} else {
				assert.NotNil(t, program)
			}
		})
	}
}

func TestRunFilter(t *testing.T) {
	program, err := compileFilter("kind == 'net' and state == 'denied'")
	require.NoError(t, err)

	keep, err := runFilter(program, domain.Descriptor{Kind: domain.KindNet, Host: "example.com"}, domain.StateDenied)
	require.NoError(t, err)
	assert.True(t, keep)

	keep, err = runFilter(program, domain.Descriptor{Kind: domain.KindNet, Host: "example.com"}, domain.StateGranted)
	require.NoError(t, err)
	assert.False(t, keep)

	keep, err = runFilter(program, domain.Descriptor{Kind: domain.KindEnv}, domain.StateDenied)
	require.NoError(t, err)
	assert.False(t, keep)
}
