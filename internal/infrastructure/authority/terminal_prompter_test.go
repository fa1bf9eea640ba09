package authority

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

func TestTerminalPrompter_IsInteractive(t *testing.T) {
	// Not t.Parallel() because it interacts with os.Stdin
	prompter := NewTerminalPrompter()
	assert.IsType(t, true, prompter.IsInteractive())
}

func TestTerminalPrompter_PromptForDescriptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantGranted bool
		wantAlways  bool
	}{
		{name: "yes", input: "y\n", wantGranted: true, wantAlways: false},
		{name: "yes long form", input: "yes\n", wantGranted: true, wantAlways: false},
		{name: "always", input: "always\n", wantGranted: true, wantAlways: true},
		{name: "always short form", input: "a\n", wantGranted: true, wantAlways: true},
		{name: "no", input: "n\n", wantGranted: false, wantAlways: false},
		{name: "enter defaults to no", input: "\n", wantGranted: false, wantAlways: false},
		{name: "garbage defaults to no", input: "sure\n", wantGranted: false, wantAlways: false},
		{name: "eof defaults to no", input: "", wantGranted: false, wantAlways: false},
		{name: "mixed case", input: "YES\n", wantGranted: true, wantAlways: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			prompter := newTestPrompter(strings.NewReader(tt.input), &out)

			granted, always, err := prompter.PromptForDescriptor(permissions.Descriptor{
				Kind: permissions.KindRead,
				Path: "/etc/hosts",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantGranted, granted)
			assert.Equal(t, tt.wantAlways, always)
			assert.Contains(t, out.String(), "Read files under: /etc/hosts")
			assert.Contains(t, out.String(), "[y/N/always]")
		})
	}
}

func TestTerminalPrompter_describeDescriptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		descriptor permissions.Descriptor
		expected   string
	}{
		{permissions.Descriptor{Kind: permissions.KindRead, Path: "/var/log"}, "Read files under: /var/log"},
		{permissions.Descriptor{Kind: permissions.KindRead}, "Read any file"},
		{permissions.Descriptor{Kind: permissions.KindWrite, Path: "/tmp"}, "Write files under: /tmp"},
		{permissions.Descriptor{Kind: permissions.KindNet, Host: "example.com"}, "Network access to host: example.com"},
		{permissions.Descriptor{Kind: permissions.KindNet}, "Network access to any host"},
		{permissions.Descriptor{Kind: permissions.KindEnv}, "Read environment variables"},
		{permissions.Descriptor{Kind: permissions.KindRun}, "Spawn subprocesses"},
		{permissions.Descriptor{Kind: permissions.KindFFI}, "Load dynamic libraries"},
		{permissions.Descriptor{Kind: permissions.KindHrtime}, "High resolution timing"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, describeDescriptor(tt.descriptor))
		})
	}
}
