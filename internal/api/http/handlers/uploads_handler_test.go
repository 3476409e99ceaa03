package handlers

import (
	"testing"

	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

func TestBlobKeyRejectsPathTraversal(t *testing.T) {
	t.Parallel()
	bad := []string{"", "..", "../secret", "a/b", `a\b`, "x/../y", "%2e%2e/../z"}
	for _, key := range bad {
		if _, err := blobKey(key); !apperrors.HasCode(err, "NOT_FOUND") {
			t.Errorf("key %q: got %v, want NOT_FOUND", key, err)
		}
	}

	good := []string{"3f2a9c.png", "abc123", "archive.tar.gz"}
	for _, key := range good {
		got, err := blobKey(key)
		if err != nil {
			t.Errorf("key %q rejected: %v", key, err)
		}
		if got != key {
			t.Errorf("key %q mangled to %q", key, got)
		}
	}
}
