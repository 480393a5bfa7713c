package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/logging"
)

// Kind names the slot a stored asset fills and doubles as its key prefix.
type Kind string

const (
	KindVideo      Kind = "videos"
	KindThumbnail  Kind = "thumbnails"
	KindAvatar     Kind = "avatars"
	KindCoverImage Kind = "covers"
)

// Asset is the stored result of an upload.
type Asset struct {
	URL      string
	Key      string
	Duration float64
}

// ObjectStore saves and removes remote media objects.
type ObjectStore interface {
	Save(ctx context.Context, name string, r io.Reader) (url, key string, err error)
	Delete(ctx context.Context, key string) error
}

// DurationProber reads the duration of a local media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Service moves uploaded files from local temp storage into the object store.
type Service struct {
	store   ObjectStore
	prober  DurationProber
	timeout time.Duration
}

// NewService constructs a media service. The timeout bounds each remote
// upload call.
func NewService(store ObjectStore, prober DurationProber, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Service{store: store, prober: prober, timeout: timeout}
}

// Upload stores the local file under a fresh key derived from kind and
// returns the asset description. The local file is removed whether or not
// the upload succeeds. Video uploads are probed for duration first.
func (s *Service) Upload(ctx context.Context, localPath string, kind Kind) (Asset, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn("remove temp upload",
				slog.String("path", localPath),
				slog.String("error", err.Error()),
			)
		}
	}()

	var duration float64
	if kind == KindVideo && s.prober != nil {
		var err error
		duration, err = s.prober.Duration(ctx, localPath)
		if err != nil {
			return Asset{}, fmt.Errorf("probe duration: %w", err)
		}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("%s/%s%s", kind, uuid.NewString(), filepath.Ext(localPath))

	uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url, storedKey, err := s.store.Save(uploadCtx, key, f)
	if err != nil {
		return Asset{}, fmt.Errorf("store upload: %w", err)
	}

	return Asset{URL: url, Key: storedKey, Duration: duration}, nil
}

// Delete removes the remote object. Failure is logged, not returned, so a
// stale object never blocks the operation that replaced it.
func (s *Service) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}

	deleteCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Delete(deleteCtx, key); err != nil {
		logging.FromContext(ctx).Warn("delete remote object",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
