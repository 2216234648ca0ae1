package bookkeeper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("Expected default options to validate, got %v", err)
	}
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    func(o *Options)
		wantErr string
	}{
		{
			name: "empty keeps defaults",
			yaml: "",
			want: func(*Options) {},
		},
		{
			name: "partial override",
			yaml: "arg_mismatch: impossible\nmax_memo_combinations: 16\necho_warnings: false\n",
			want: func(o *Options) {
				o.ArgMismatch = ArgMismatchImpossible
				o.MaxMemoCombinations = 16
				o.EchoWarnings = false
			},
		},
		{
			name: "log level alias",
			yaml: "log_level: warning\nwarning_color: never\n",
			want: func(o *Options) {
				o.LogLevel = "warning"
				o.WarningColor = "never"
			},
		},
		{
			name:    "unknown mismatch policy",
			yaml:    "arg_mismatch: ignore\n",
			wantErr: "invalid bookkeeper options",
		},
		{
			name:    "negative limit",
			yaml:    "max_specializations: -1\n",
			wantErr: "invalid bookkeeper options",
		},
		{
			name:    "bad color",
			yaml:    "warning_color: sometimes\n",
			wantErr: "invalid bookkeeper options",
		},
		{
			name:    "malformed",
			yaml:    "log_level: [\n",
			wantErr: "failed to parse options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions([]byte(tt.yaml))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			want := DefaultOptions()
			tt.want(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookkeeper.yaml")
	if err := os.WriteFile(path, []byte("keep_warnings: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatal(err)
	}
	if opts.KeepWarnings {
		t.Error("Expected keep_warnings to be read from the file")
	}
	if opts.ArgMismatch != ArgMismatchFail {
		t.Errorf("Expected missing fields to keep defaults, got %q", opts.ArgMismatch)
	}

	if _, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
