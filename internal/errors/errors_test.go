package errors_test

import (
	"errors"
	"fmt"
	"testing"

	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// TestBaseErrors verifies that all base error types have correct messages.
func TestBaseErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrNotFound", converrors.ErrNotFound, "not found"},
		{"ErrInvalid", converrors.ErrInvalid, "invalid"},
		{"ErrIO", converrors.ErrIO, "I/O error"},
		{"ErrCanceled", converrors.ErrCanceled, "canceled"},
		{"ErrMissingCredential", converrors.ErrMissingCredential, "missing generative credential"},
		{"ErrUnmappedPlaceholder", converrors.ErrUnmappedPlaceholder, "unmapped placeholder"},
		{"ErrGenerativeCall", converrors.ErrGenerativeCall, "generative call failed"},
		{"ErrInvalidOutput", converrors.ErrInvalidOutput, "invalid generative output"},
		{"ErrUnsupportedFormat", converrors.ErrUnsupportedFormat, "unsupported format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestEntryError verifies EntryError formatting and unwrapping.
func TestEntryError(t *testing.T) {
	tests := []struct {
		name string
		err  *converrors.EntryError
		want string
	}{
		{
			name: "with key",
			err:  &converrors.EntryError{Op: "rewrite", Err: converrors.ErrInvalid, Key: "en|subject"},
			want: `entry rewrite "en|subject": invalid`,
		},
		{
			name: "without key",
			err:  &converrors.EntryError{Op: "generate", Err: converrors.ErrGenerativeCall},
			want: "entry generate: generative call failed",
		},
		{
			name: "wrapped custom error",
			err:  &converrors.EntryError{Op: "convert", Err: fmt.Errorf("boom"), Key: "de|body"},
			want: `entry convert "de|body": boom`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("Unwrap returns original error", func(t *testing.T) {
		wrapped := &converrors.EntryError{Op: "test", Err: converrors.ErrNotFound}
		if !errors.Is(wrapped, converrors.ErrNotFound) {
			t.Error("Unwrap() did not return the original error for errors.Is")
		}
	})
}

// TestGenerativeError verifies GenerativeError formatting and unwrapping.
func TestGenerativeError(t *testing.T) {
	tests := []struct {
		name string
		err  *converrors.GenerativeError
		want string
	}{
		{
			name: "with status",
			err:  &converrors.GenerativeError{Provider: "openai", Status: 502, Err: converrors.ErrGenerativeCall},
			want: "openai provider (status 502): generative call failed",
		},
		{
			name: "without status",
			err:  &converrors.GenerativeError{Provider: "ollama", Err: converrors.ErrInvalidOutput},
			want: "ollama provider: invalid generative output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("generative failures are classified together", func(t *testing.T) {
		call := &converrors.GenerativeError{Provider: "openai", Err: converrors.ErrGenerativeCall}
		output := &converrors.GenerativeError{Provider: "openai", Err: converrors.ErrInvalidOutput}
		if !converrors.IsGenerativeFailure(call) || !converrors.IsGenerativeFailure(output) {
			t.Error("IsGenerativeFailure() = false, want true for both failure kinds")
		}
		if converrors.IsGenerativeFailure(converrors.ErrMissingCredential) {
			t.Error("IsGenerativeFailure(ErrMissingCredential) = true, want false")
		}
	})
}

// TestConfigError verifies ConfigError formatting and unwrapping.
func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *converrors.ConfigError
		want string
	}{
		{
			name: "with path",
			err:  &converrors.ConfigError{Path: "~/.config/tmplconv/config.toml", Err: converrors.ErrInvalid},
			want: "config ~/.config/tmplconv/config.toml: invalid",
		},
		{
			name: "without path",
			err:  &converrors.ConfigError{Err: converrors.ErrNotFound},
			want: "config: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWrap verifies the Wrap helper function.
func TestWrap(t *testing.T) {
	original := converrors.ErrNotFound
	wrapped := converrors.Wrap(original, "readFile")

	if got := wrapped.Error(); got != "readFile: not found" {
		t.Errorf("Error() = %q, want 'readFile: not found'", got)
	}

	t.Run("Double wrap preserves original", func(t *testing.T) {
		doubleWrapped := converrors.Wrap(wrapped, "loadEntries")
		if !errors.Is(doubleWrapped, original) {
			t.Error("Double wrap did not preserve the original error")
		}
		if got := doubleWrapped.Error(); got != "loadEntries: readFile: not found" {
			t.Errorf("Error() = %q", got)
		}
	})
}

// TestIsHelpers verifies all Is<TYPE>() helper functions.
func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name    string
		baseErr error
		isFunc  func(error) bool
	}{
		{"IsNotFound", converrors.ErrNotFound, converrors.IsNotFound},
		{"IsInvalid", converrors.ErrInvalid, converrors.IsInvalid},
		{"IsIO", converrors.ErrIO, converrors.IsIO},
		{"IsCanceled", converrors.ErrCanceled, converrors.IsCanceled},
		{"IsMissingCredential", converrors.ErrMissingCredential, converrors.IsMissingCredential},
		{"IsUnmappedPlaceholder", converrors.ErrUnmappedPlaceholder, converrors.IsUnmappedPlaceholder},
		{"IsUnsupportedFormat", converrors.ErrUnsupportedFormat, converrors.IsUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name+" direct", func(t *testing.T) {
			if !tt.isFunc(tt.baseErr) {
				t.Errorf("%s(%v) = false, want true", tt.name, tt.baseErr)
			}
		})
		t.Run(tt.name+" wrapped", func(t *testing.T) {
			if !tt.isFunc(converrors.Wrap(tt.baseErr, "outer")) {
				t.Errorf("%s(wrapped) = false, want true", tt.name)
			}
		})
	}

	t.Run("IsNotFound with different error", func(t *testing.T) {
		if converrors.IsNotFound(converrors.ErrInvalid) {
			t.Error("IsNotFound(ErrInvalid) = true, want false")
		}
	})
}

// TestAsHelpers verifies all As<TYPE>Error() helper functions.
func TestAsHelpers(t *testing.T) {
	t.Run("AsEntryError with wrapped", func(t *testing.T) {
		wrapped := converrors.Wrap(&converrors.EntryError{Op: "rewrite", Err: converrors.ErrInvalid, Key: "k"}, "outer")
		result, ok := converrors.AsEntryError(wrapped)
		if !ok {
			t.Fatal("AsEntryError(wrapped) = false, want true")
		}
		if result.Op != "rewrite" || result.Key != "k" {
			t.Errorf("AsEntryError returned wrong struct: got Op=%q, Key=%q", result.Op, result.Key)
		}
	})

	t.Run("AsGenerativeError", func(t *testing.T) {
		ge := &converrors.GenerativeError{Provider: "openai", Status: 401, Err: converrors.ErrGenerativeCall}
		result, ok := converrors.AsGenerativeError(converrors.Wrap(ge, "convert"))
		if !ok {
			t.Fatal("AsGenerativeError(valid) = false, want true")
		}
		if result.Status != 401 {
			t.Errorf("AsGenerativeError returned wrong Status: got %d", result.Status)
		}
	})

	t.Run("AsConfigError with wrong type", func(t *testing.T) {
		if _, ok := converrors.AsConfigError(converrors.ErrInvalid); ok {
			t.Error("AsConfigError(ErrInvalid) = true, want false")
		}
	})
}
