package app

import (
	"context"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/config"
	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/handlers"
	"github.com/viewtube/backend/internal/media"
	"github.com/viewtube/backend/internal/repositories"
	"github.com/viewtube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	prober := media.NewFFProbe(cfg.FFProbePath, cfg.UploadTimeout)
	mediaService := media.NewService(store, prober, cfg.UploadTimeout)

	users := repositories.NewPostgresUserRepository(pool)
	signer := auth.NewTokenSigner(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessions := auth.NewService(signer, users, users)

	return handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Verifier:      signer,
		Media:         mediaService,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		TempDir:       cfg.UploadTempDir,
		BcryptCost:    cfg.BcryptCost,
		CORSOrigin:    cfg.CORSOrigin,
	}, nil
}
