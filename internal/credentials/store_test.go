package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	skilllinkErrors "skilllink/internal/errors"
)

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "empty string", value: "", want: true},
		{name: "whitespace only", value: "   ", want: true},
		{name: "shipped placeholder", value: "your-openai-api-key-here", want: true},
		{name: "trailing sentinel", value: "paste-key-here", want: true},
		{name: "changeme", value: "CHANGEME", want: true},
		{name: "generic placeholder word", value: "placeholder-value", want: true},
		{name: "real-looking key", value: "sk-abc123def456", want: false},
		{name: "short real key", value: "k1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPlaceholder(tt.value); got != tt.want {
				t.Errorf("IsPlaceholder(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestStaticStoreGet(t *testing.T) {
	store := NewStaticStore(map[string]string{
		ServiceParser:   "parser-secret",
		ServiceAnalysis: "your-analysis-key-here",
	})

	t.Run("configured secret", func(t *testing.T) {
		secret, err := store.Get(ServiceParser)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if secret != "parser-secret" {
			t.Errorf("got %q, want %q", secret, "parser-secret")
		}
	})

	t.Run("placeholder fails like absent", func(t *testing.T) {
		_, err := store.Get(ServiceAnalysis)
		if err == nil {
			t.Fatal("expected error for placeholder credential")
		}
		assertNotConfigured(t, err, ServiceAnalysis)
	})

	t.Run("unknown service", func(t *testing.T) {
		_, err := store.Get(ServiceRecommend)
		if err == nil {
			t.Fatal("expected error for unknown service")
		}
		assertNotConfigured(t, err, ServiceRecommend)
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.yaml")

	content := "parser: file-parser-secret\nanalysis: your-key-here\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := NewFileStore(path, false, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer store.Close()

	secret, err := store.Get(ServiceParser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "file-parser-secret" {
		t.Errorf("got %q, want %q", secret, "file-parser-secret")
	}

	if _, err := store.Get(ServiceAnalysis); err == nil {
		t.Error("expected placeholder value in file to fail")
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	if _, err := NewFileStore(filepath.Join(t.TempDir(), "missing.yaml"), false, nil); err == nil {
		t.Fatal("expected error for missing credentials file")
	}
}

// assertNotConfigured verifies the canonical missing-credential error
// shape: a config AppError wrapping ErrNotConfigured that names the
// service.
func assertNotConfigured(t *testing.T, err error, service string) {
	t.Helper()

	if !skilllinkErrors.IsConfigError(err) {
		t.Errorf("expected config error, got type %q", skilllinkErrors.TypeOf(err))
	}
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected error to wrap ErrNotConfigured, got %v", err)
	}

	var appErr *skilllinkErrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != skilllinkErrors.ErrCodeCredentialMissing {
		t.Errorf("got code %q, want %q", appErr.Code, skilllinkErrors.ErrCodeCredentialMissing)
	}
	if got := appErr.Context["service"]; got != service {
		t.Errorf("got service context %v, want %q", got, service)
	}
}
