package exec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type mockExecCmd struct {
	output    []byte
	err       error
	stderrMsg string
	stdin     []byte
	stderr    *bytes.Buffer
}

func (m *mockExecCmd) SetStdin(r *bytes.Reader) {
	m.stdin, _ = io.ReadAll(r)
}

func (m *mockExecCmd) SetStderr(w *bytes.Buffer) { m.stderr = w }

func (m *mockExecCmd) Output() ([]byte, error) {
	if m.stderr != nil {
		m.stderr.WriteString(m.stderrMsg)
	}
	return m.output, m.err
}

func withMockCommand(t *testing.T, m *mockExecCmd) {
	t.Helper()
	orig := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) execCmd {
		return m
	}
	t.Cleanup(func() { execCommand = orig })
}

func TestExecRunner_Run(t *testing.T) {
	tests := []struct {
		name       string
		mock       *mockExecCmd
		wantErr    bool
		wantErrMsg string
	}{
		{
			name: "successful command",
			mock: &mockExecCmd{output: []byte("00:18:42\n")},
		},
		{
			name:       "command error",
			mock:       &mockExecCmd{err: errors.New("exit status 1")},
			wantErr:    true,
			wantErrMsg: "tesseract: exit status 1",
		},
		{
			name:       "stderr is folded into the error",
			mock:       &mockExecCmd{err: errors.New("exit status 1"), stderrMsg: "Error opening data file\n"},
			wantErr:    true,
			wantErrMsg: "Error opening data file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withMockCommand(t, tt.mock)

			r := NewExecRunner()
			out, err := r.Run(context.Background(), nil, "tesseract", "stdin", "stdout")

			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.wantErrMsg) {
				t.Errorf("Run() error = %q, want it to contain %q", err, tt.wantErrMsg)
			}
			if !tt.wantErr && string(out) != string(tt.mock.output) {
				t.Errorf("Run() output = %q, want %q", out, tt.mock.output)
			}
		})
	}
}

func TestExecRunner_RunPipesStdin(t *testing.T) {
	m := &mockExecCmd{output: []byte("ok")}
	withMockCommand(t, m)

	input := []byte{0x89, 'P', 'N', 'G'}
	if _, err := NewExecRunner().Run(context.Background(), input, "tesseract"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(m.stdin, input) {
		t.Errorf("stdin = %v, want %v", m.stdin, input)
	}
}

func TestExecRunner_RealCommand(t *testing.T) {
	r := NewExecRunner()
	out, err := r.Run(context.Background(), []byte("hello"), "cat")
	if err != nil {
		t.Skipf("cat not available: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("Run() output = %q, want %q", out, "hello")
	}
}
