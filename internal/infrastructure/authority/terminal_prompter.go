package authority

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// TerminalPrompter provides interactive terminal prompting for capability
// escalation.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalPrompter creates a prompter over stdin/stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: os.Stdin, out: os.Stderr}
}

// newTestPrompter creates a prompter over arbitrary streams (for tests).
func newTestPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

// IsInteractive checks if we're running in an interactive terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	file, ok := p.in.(*os.File)
	if !ok {
		// Non-file readers only appear in tests, which want prompting.
		return true
	}
	fileInfo, err := file.Stat()
	if err != nil {
		return false
	}
	// Character device means a terminal, not a pipe or file.
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// PromptForDescriptor asks the user whether to allow a capability.
func (p *TerminalPrompter) PromptForDescriptor(d permissions.Descriptor) (granted bool, always bool, err error) {
	fmt.Fprintf(p.out, "\nWorkload requires permission:\n")
	fmt.Fprintf(p.out, "  %s\n", describeDescriptor(d))
	fmt.Fprintf(p.out, "\nAllow this permission? [y/N/always]: ")

	reader := bufio.NewReader(p.in)
	response, err := reader.ReadString('\n')
	if err != nil {
		// On error (EOF, etc), treat as "no"
		return false, false, nil
	}

	response = strings.ToLower(strings.TrimSpace(response))

	switch response {
	case "y", "yes":
		return true, false, nil
	case "a", "always":
		return true, true, nil
	case "n", "no", "":
		// Empty response (just Enter) counts as "no"
		return false, false, nil
	default:
		// Unknown response - default to deny
		return false, false, nil
	}
}

// describeDescriptor returns a human-readable description of a capability
// request.
func describeDescriptor(d permissions.Descriptor) string {
	switch d.Kind {
	case permissions.KindRead:
		if d.Path != "" {
			return fmt.Sprintf("Read files under: %s", d.Path)
		}
		return "Read any file"
	case permissions.KindWrite:
		if d.Path != "" {
			return fmt.Sprintf("Write files under: %s", d.Path)
		}
		return "Write any file"
	case permissions.KindNet:
		if d.Host != "" {
			return fmt.Sprintf("Network access to host: %s", d.Host)
		}
		return "Network access to any host"
	case permissions.KindEnv:
		return "Read environment variables"
	case permissions.KindRun:
		return "Spawn subprocesses"
	case permissions.KindFFI:
		return "Load dynamic libraries"
	case permissions.KindHrtime:
		return "High resolution timing"
	default:
		return d.String()
	}
}
