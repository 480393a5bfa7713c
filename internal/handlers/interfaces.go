package handlers

import (
	"context"

	"github.com/viewtube/backend/internal/media"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, url, key string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url, key string) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string, page models.Page) ([]models.VideoView, int, error)
}

// SessionManager authenticates credentials and manages the token lifecycle.
type SessionManager interface {
	Authenticate(ctx context.Context, identifier, password string) (models.User, error)
	Issue(ctx context.Context, userID string) (models.TokenPair, error)
	Rotate(ctx context.Context, presented string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// AccessVerifier checks an access token and returns its subject.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// MediaService stores uploaded files remotely and removes stale objects.
type MediaService interface {
	Upload(ctx context.Context, localPath string, kind media.Kind) (media.Asset, error)
	Delete(ctx context.Context, key string)
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	GetView(ctx context.Context, id, viewerID string) (models.VideoView, error)
	List(ctx context.Context, q repositories.VideoQuery) ([]models.VideoView, int, error)
	UpdateDetails(ctx context.Context, id, ownerID, title, description, thumbnailURL, thumbnailKey string) (models.Video, error)
	Delete(ctx context.Context, id, ownerID string) error
	TogglePublish(ctx context.Context, id, ownerID string) (bool, error)
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForVideo(ctx context.Context, videoID, viewerID string, page models.Page) ([]models.CommentView, int, error)
	UpdateContent(ctx context.Context, id, ownerID, content string) (models.Comment, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// LikeStore toggles and queries likes across target kinds.
type LikeStore interface {
	Toggle(ctx context.Context, userID string, target repositories.LikeTarget, targetID string) (bool, error)
	LikedVideos(ctx context.Context, userID string, page models.Page) ([]models.VideoView, int, error)
}

// PlaylistStore captures persistence for playlists and their entries.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForUser(ctx context.Context, userID string) ([]models.Playlist, error)
	GetView(ctx context.Context, id, viewerID string) (models.PlaylistView, error)
	AddVideo(ctx context.Context, playlistID, ownerID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, ownerID, videoID string) error
	UpdateDetails(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// SubscriptionStore toggles and lists channel subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	Subscribers(ctx context.Context, channelID string, page models.Page) ([]models.PublicProfile, models.PageMeta, error)
	SubscribedChannels(ctx context.Context, subscriberID string, page models.Page) ([]models.PublicProfile, models.PageMeta, error)
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	ListForUser(ctx context.Context, userID string, page models.Page) ([]models.TweetView, int, error)
	UpdateContent(ctx context.Context, id, ownerID, content string) (models.Tweet, error)
	Delete(ctx context.Context, id, ownerID string) error
}
