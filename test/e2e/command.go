//go:build e2e

package e2e

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/vladimirvivien/gexe/exec"
)

// Process is a receipts command started in background.
type Process struct {
	proc   *exec.Proc
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newProcess(command string, env []string, stdin string) *Process {
	ret := &Process{
		proc:   exec.NewProc(command),
		stdout: bytes.NewBufferString(""),
		stderr: bytes.NewBufferString(""),
	}

	ret.proc.Command().Stdout = ret.stdout
	ret.proc.Command().Stderr = ret.stderr
	ret.proc.Command().Env = append(os.Environ(), env...)

	if stdin != "" {
		ret.proc.Command().Stdin = strings.NewReader(stdin)
	}

	return ret
}

func (p *Process) Start() *Process {
	p.proc.Start()

	return p
}

// Wait blocks until the process exits and returns its error with the captured output.
func (p *Process) Wait() error {
	p.proc.Wait()

	err := p.proc.Err()
	if err != nil {
		return fmt.Errorf("failed to run command (%w): stdout:%s stderr:%s", err, p.stdout.String(), p.stderr.String())
	}

	return nil
}

func (p *Process) Stderr() string {
	return p.stderr.String()
}

func runCommand(command string, env []string) error {
	return newProcess(command, env, "").Start().Wait()
}
