//go:build windows

package process

import "os"

// Windows has no deliverable interrupt for background processes.
func interrupt(p *os.Process) error {
	return p.Kill()
}
