package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFFProbeDuration(t *testing.T) {
	probe := NewFFProbe("ffprobe", time.Second)
	probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("unexpected binary: %q", binary)
		}
		if args[len(args)-1] != "/tmp/clip.mp4" {
			t.Fatalf("expected file path as last arg, got %q", args[len(args)-1])
		}
		return []byte(`{"format":{"duration":"12.480000"}}`), nil
	}

	seconds, err := probe.Duration(context.Background(), "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if seconds != 12.48 {
		t.Fatalf("unexpected duration: %v", seconds)
	}
}

func TestFFProbeDurationMalformedPayload(t *testing.T) {
	probe := NewFFProbe("", time.Second)
	probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte(`{"format":{}}`), nil
	}

	if _, err := probe.Duration(context.Background(), "/tmp/clip.mp4"); err == nil {
		t.Fatal("expected error for missing duration")
	}
}

func TestFFProbeDurationCommandFailure(t *testing.T) {
	probe := NewFFProbe("", time.Second)
	probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return nil, fmt.Errorf("exit status 1")
	}

	if _, err := probe.Duration(context.Background(), "/tmp/clip.mp4"); err == nil {
		t.Fatal("expected error when ffprobe fails")
	}
}

func TestServiceUploadVideo(t *testing.T) {
	path := writeTempFile(t, "clip.mp4")

	store := &stubStore{saved: make(map[string][]byte)}
	prober := stubProber{seconds: 97.5}

	svc := NewService(store, prober, time.Second)
	asset, err := svc.Upload(context.Background(), path, KindVideo)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if asset.Duration != 97.5 {
		t.Fatalf("unexpected duration: %v", asset.Duration)
	}
	if !strings.HasPrefix(asset.Key, "videos/") || !strings.HasSuffix(asset.Key, ".mp4") {
		t.Fatalf("unexpected key: %q", asset.Key)
	}
	if asset.URL != "stored://"+asset.Key {
		t.Fatalf("unexpected url: %q", asset.URL)
	}
	if _, ok := store.saved[asset.Key]; !ok {
		t.Fatalf("expected store to contain uploaded object")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file to be removed, stat err = %v", err)
	}
}

func TestServiceUploadImageSkipsProbe(t *testing.T) {
	path := writeTempFile(t, "avatar.png")

	store := &stubStore{saved: make(map[string][]byte)}
	prober := stubProber{err: fmt.Errorf("should not be called")}

	svc := NewService(store, prober, time.Second)
	asset, err := svc.Upload(context.Background(), path, KindAvatar)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if asset.Duration != 0 {
		t.Fatalf("expected zero duration for image, got %v", asset.Duration)
	}
	if !strings.HasPrefix(asset.Key, "avatars/") {
		t.Fatalf("unexpected key: %q", asset.Key)
	}
}

func TestServiceUploadRemovesTempFileOnFailure(t *testing.T) {
	path := writeTempFile(t, "clip.mp4")

	store := &stubStore{saveErr: fmt.Errorf("bucket unreachable")}
	svc := NewService(store, stubProber{seconds: 1}, time.Second)

	if _, err := svc.Upload(context.Background(), path, KindVideo); err == nil {
		t.Fatal("expected error when store fails")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file removed after failure, stat err = %v", err)
	}
}

func TestServiceUploadProbeFailure(t *testing.T) {
	path := writeTempFile(t, "clip.mp4")

	store := &stubStore{saved: make(map[string][]byte)}
	svc := NewService(store, stubProber{err: fmt.Errorf("corrupt file")}, time.Second)

	if _, err := svc.Upload(context.Background(), path, KindVideo); err == nil {
		t.Fatal("expected error when probe fails")
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected nothing uploaded after probe failure")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file removed after probe failure, stat err = %v", err)
	}
}

func TestServiceDeleteSwallowsFailure(t *testing.T) {
	store := &stubStore{deleteErr: fmt.Errorf("object locked")}
	svc := NewService(store, nil, time.Second)

	// Should log and return, never panic or propagate.
	svc.Delete(context.Background(), "videos/gone")
	svc.Delete(context.Background(), "")

	if store.deleted != 1 {
		t.Fatalf("expected exactly one delete attempt, got %d", store.deleted)
	}
}

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

type stubStore struct {
	saved     map[string][]byte
	saveErr   error
	deleteErr error
	deleted   int
}

func (s *stubStore) Save(ctx context.Context, name string, r io.Reader) (string, string, error) {
	if s.saveErr != nil {
		return "", "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	s.saved[name] = data
	return "stored://" + name, name, nil
}

func (s *stubStore) Delete(ctx context.Context, key string) error {
	s.deleted++
	return s.deleteErr
}

type stubProber struct {
	seconds float64
	err     error
}

func (p stubProber) Duration(ctx context.Context, path string) (float64, error) {
	return p.seconds, p.err
}
