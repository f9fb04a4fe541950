// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	silentCalls   []string
	runPipedFunc  func(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	m.silentCalls = append(m.silentCalls, key)
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunPiped(_ context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if m.runPipedFunc != nil {
		return m.runPipedFunc(name, args, stdin, stdout, stderr)
	}
	return nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:    "neither available",
			exec:    &mockExecutor{},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "both available, docker preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detect(context.Background(), tt.exec)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "no container runtime available")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rt.Name())
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		rt      func(*mockExecutor) Runtime
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name: "docker image exists",
			rt:   func(e *mockExecutor) Runtime { return newDocker(e) },
			cmds: map[string]bool{"docker image inspect pandoc/latex:3.1": true},
		},
		{
			name:    "docker image not found",
			rt:      func(e *mockExecutor) Runtime { return newDocker(e) },
			wantErr: true,
		},
		{
			name: "podman image exists",
			rt:   func(e *mockExecutor) Runtime { return newPodman(e) },
			cmds: map[string]bool{"podman image exists pandoc/latex:3.1": true},
		},
		{
			name:    "podman image not found",
			rt:      func(e *mockExecutor) Runtime { return newPodman(e) },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := tt.rt(&mockExecutor{runnableCmds: tt.cmds})
			err := rt.ImageExists(context.Background(), "pandoc/latex:3.1")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "pandoc/latex:3.1")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEnsureImage(t *testing.T) {
	present := &mockExecutor{runnableCmds: map[string]bool{"docker image inspect img": true}}
	require.NoError(t, EnsureImage(context.Background(), newDocker(present), "img"))
	assert.Equal(t, []string{"docker image inspect img"}, present.silentCalls)

	missing := &mockExecutor{runnableCmds: map[string]bool{"docker pull img": true}}
	require.NoError(t, EnsureImage(context.Background(), newDocker(missing), "img"))
	assert.Equal(t, []string{"docker image inspect img", "docker pull img"}, missing.silentCalls)

	unreachable := &mockExecutor{}
	err := EnsureImage(context.Background(), newPodman(unreachable), "img")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pulling img with podman")
}

func TestRun(t *testing.T) {
	var gotName string
	var gotArgs []string
	x := &mockExecutor{
		runPipedFunc: func(name string, args []string, stdin io.Reader, stdout, _ io.Writer) error {
			gotName, gotArgs = name, args
			data, _ := io.ReadAll(stdin)
			_, _ = stdout.Write([]byte("converted: " + string(data)))
			return nil
		},
	}

	var out bytes.Buffer
	err := newPodman(x).Run(context.Background(), "pandoc/latex", []string{"-f", "markdown", "-o", "-"}, strings.NewReader("# Hi"), &out)
	require.NoError(t, err)
	assert.Equal(t, "podman", gotName)
	assert.Equal(t, []string{"run", "--rm", "-i", "pandoc/latex", "-f", "markdown", "-o", "-"}, gotArgs)
	assert.Equal(t, "converted: # Hi", out.String())
}

func TestRunFailureIncludesStderr(t *testing.T) {
	x := &mockExecutor{
		runPipedFunc: func(_ string, _ []string, _ io.Reader, _, stderr io.Writer) error {
			_, _ = stderr.Write([]byte("pdflatex not found\n"))
			return errors.New("exit status 43")
		},
	}
	err := newDocker(x).Run(context.Background(), "pandoc/latex", nil, strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running docker container pandoc/latex")
	assert.Contains(t, err.Error(), "pdflatex not found")
}

func TestRuntimeName(t *testing.T) {
	x := &mockExecutor{}
	assert.Equal(t, "docker", newDocker(x).Name())
	assert.Equal(t, "podman", newPodman(x).Name())
}
