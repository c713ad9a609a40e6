// Copyright 2025 Mediaforge Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &ValidationError{Field: "action", Message: "must be start or stop"}
		want := "validation failed on action: must be start or stop"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("without field", func(t *testing.T) {
		err := &ValidationError{Message: "empty request"}
		want := "validation failed: empty request"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Resource: "execution", ID: "exec_123"}
	want := "execution not found: exec_123"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDuplicateIDError(t *testing.T) {
	err := &DuplicateIDError{ID: "exec_dup"}
	want := "execution id already exists: exec_dup"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{ID: "exec_123", State: "completed"}
	want := "execution exec_123 already terminal (state: completed)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestPipelineError(t *testing.T) {
	t.Run("with stage", func(t *testing.T) {
		err := &PipelineError{Stage: "youtube-upload", Message: "quota exceeded"}
		want := "pipeline failed at youtube-upload: quota exceeded"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("without stage", func(t *testing.T) {
		err := &PipelineError{Message: "unknown failure"}
		want := "pipeline failed: unknown failure"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := stderrors.New("network down")
		err := &PipelineError{Stage: "youtube-upload", Message: "upload failed", Cause: cause}
		if !stderrors.Is(err, cause) {
			t.Error("errors.Is should reach the cause")
		}
	})
}

func TestConfigError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := &ConfigError{Key: "validation", Reason: "bad timezone"}
		want := "config error (validation): bad timezone"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := stderrors.New("no such file")
		err := &ConfigError{Key: "config_file", Reason: "failed to load", Cause: cause}
		want := "config error (config_file): failed to load: no such file"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if !stderrors.Is(err, cause) {
			t.Error("errors.Is should reach the cause")
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if Wrap(nil, "context") != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})

	t.Run("adds context", func(t *testing.T) {
		base := stderrors.New("boom")
		err := Wrap(base, "starting workflow")
		want := "starting workflow: boom"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if !stderrors.Is(err, base) {
			t.Error("wrapped error should match the base with errors.Is")
		}
	})
}

func TestWrapf(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if Wrapf(nil, "context %d", 1) != nil {
			t.Error("Wrapf(nil) should return nil")
		}
	})

	t.Run("formats context", func(t *testing.T) {
		base := stderrors.New("boom")
		err := Wrapf(base, "invalid cron expression %q", "bad")
		want := `invalid cron expression "bad": boom`
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})
}

func TestIsNotFound(t *testing.T) {
	nf := &NotFoundError{Resource: "execution", ID: "exec_1"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", nf, true},
		{"wrapped", fmt.Errorf("lookup: %w", nf), true},
		{"double wrapped", Wrap(Wrap(nf, "inner"), "outer"), true},
		{"other error", stderrors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInvalidTransition(t *testing.T) {
	it := &InvalidTransitionError{ID: "exec_1", State: "failed"}

	if !IsInvalidTransition(it) {
		t.Error("IsInvalidTransition should match a direct error")
	}
	if !IsInvalidTransition(fmt.Errorf("marking: %w", it)) {
		t.Error("IsInvalidTransition should match a wrapped error")
	}
	if IsInvalidTransition(stderrors.New("boom")) {
		t.Error("IsInvalidTransition should not match unrelated errors")
	}
}

func TestAs(t *testing.T) {
	err := Wrap(&DuplicateIDError{ID: "exec_dup"}, "admitting execution")

	var dup *DuplicateIDError
	if !As(err, &dup) {
		t.Fatal("As should find DuplicateIDError through wrapping")
	}
	if dup.ID != "exec_dup" {
		t.Errorf("ID = %q, want exec_dup", dup.ID)
	}
}
