package handlers

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/media"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

type fakeUserStore struct {
	users   map[string]models.User
	watched []string
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(ctx context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.FullName = fullName
	user.Email = email
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateAvatar(ctx context.Context, id, url, key string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL, user.AvatarKey = url, key
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdateCoverImage(ctx context.Context, id, url, key string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImageURL, user.CoverImageKey = url, key
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	for _, user := range s.users {
		if user.Username == username {
			return models.ChannelProfile{ID: user.ID, Username: user.Username, FullName: user.FullName}, nil
		}
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s *fakeUserStore) RecordWatch(ctx context.Context, userID, videoID string) error {
	s.watched = append(s.watched, userID+":"+videoID)
	return nil
}

func (s *fakeUserStore) WatchHistory(ctx context.Context, userID string, page models.Page) ([]models.VideoView, int, error) {
	return nil, 0, nil
}

type fakeSessions struct {
	users   *fakeUserStore
	pair    models.TokenPair
	revoked []string
	rotated []string
}

func (s *fakeSessions) Authenticate(ctx context.Context, identifier, password string) (models.User, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil || user.Password != password {
		return models.User{}, auth.ErrInvalidCredentials
	}
	return user, nil
}

func (s *fakeSessions) Issue(ctx context.Context, userID string) (models.TokenPair, error) {
	return s.pair, nil
}

func (s *fakeSessions) Rotate(ctx context.Context, presented string) (models.TokenPair, error) {
	if presented != s.pair.RefreshToken {
		return models.TokenPair{}, auth.ErrTokenStale
	}
	s.rotated = append(s.rotated, presented)
	return s.pair, nil
}

func (s *fakeSessions) Revoke(ctx context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

type stubVerifier struct {
	subjects map[string]string
}

func (v stubVerifier) VerifyAccess(token string) (string, error) {
	if subject, ok := v.subjects[token]; ok {
		return subject, nil
	}
	return "", auth.ErrInvalidToken
}

type fakeMedia struct {
	uploads int
	deleted []string
	fail    bool
}

func (m *fakeMedia) Upload(ctx context.Context, localPath string, kind media.Kind) (media.Asset, error) {
	os.Remove(localPath)
	if m.fail {
		return media.Asset{}, fmt.Errorf("object store unreachable")
	}
	m.uploads++
	key := fmt.Sprintf("%s/object-%d", kind, m.uploads)
	asset := media.Asset{URL: "https://cdn.test/" + key, Key: key}
	if kind == media.KindVideo {
		asset.Duration = 120
	}
	return asset, nil
}

func (m *fakeMedia) Delete(ctx context.Context, key string) {
	if key != "" {
		m.deleted = append(m.deleted, key)
	}
}

type fakeVideoStore struct {
	videos map[string]models.Video
	owners map[string]models.PublicProfile
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{
		videos: make(map[string]models.Video),
		owners: make(map[string]models.PublicProfile),
	}
}

func (s *fakeVideoStore) Create(ctx context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(ctx context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) GetView(ctx context.Context, id, viewerID string) (models.VideoView, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.VideoView{}, repositories.ErrNotFound
	}
	return s.view(video), nil
}

func (s *fakeVideoStore) view(video models.Video) models.VideoView {
	return models.VideoView{
		ID:           video.ID,
		Owner:        s.owners[video.OwnerID],
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Title:        video.Title,
		Description:  video.Description,
		Duration:     video.Duration,
		IsPublished:  video.IsPublished,
		CreatedAt:    video.CreatedAt,
	}
}

func (s *fakeVideoStore) List(ctx context.Context, q repositories.VideoQuery) ([]models.VideoView, int, error) {
	var views []models.VideoView
	for _, video := range s.videos {
		if q.OnlyPublished && !video.IsPublished {
			continue
		}
		if q.OwnerID != "" && video.OwnerID != q.OwnerID {
			continue
		}
		views = append(views, s.view(video))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })

	total := len(views)
	start := q.Page.Offset()
	if start > total {
		start = total
	}
	end := start + q.Page.Limit
	if end > total {
		end = total
	}
	return views[start:end], total, nil
}

func (s *fakeVideoStore) UpdateDetails(ctx context.Context, id, ownerID, title, description, thumbnailURL, thumbnailKey string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok || video.OwnerID != ownerID {
		return models.Video{}, repositories.ErrNotFound
	}
	video.Title, video.Description = title, description
	if thumbnailURL != "" {
		video.ThumbnailURL, video.ThumbnailKey = thumbnailURL, thumbnailKey
	}
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) Delete(ctx context.Context, id, ownerID string) error {
	video, ok := s.videos[id]
	if !ok || video.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) TogglePublish(ctx context.Context, id, ownerID string) (bool, error) {
	video, ok := s.videos[id]
	if !ok || video.OwnerID != ownerID {
		return false, repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	s.videos[id] = video
	return video.IsPublished, nil
}

type fakeCommentStore struct {
	comments map[string]models.Comment
}

func (s *fakeCommentStore) Create(ctx context.Context, comment models.Comment) error {
	if s.comments == nil {
		s.comments = make(map[string]models.Comment)
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) ListForVideo(ctx context.Context, videoID, viewerID string, page models.Page) ([]models.CommentView, int, error) {
	var views []models.CommentView
	for _, c := range s.comments {
		if c.VideoID != videoID {
			continue
		}
		views = append(views, models.CommentView{
			ID:      c.ID,
			VideoID: c.VideoID,
			Content: c.Content,
			IsOwner: c.OwnerID == viewerID,
		})
	}
	return views, len(views), nil
}

func (s *fakeCommentStore) UpdateContent(ctx context.Context, id, ownerID, content string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok || comment.OwnerID != ownerID {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(ctx context.Context, id, ownerID string) error {
	comment, ok := s.comments[id]
	if !ok || comment.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeLikeStore struct {
	liked map[string]bool
}

func (s *fakeLikeStore) Toggle(ctx context.Context, userID string, target repositories.LikeTarget, targetID string) (bool, error) {
	if s.liked == nil {
		s.liked = make(map[string]bool)
	}
	key := userID + ":" + string(target) + ":" + targetID
	s.liked[key] = !s.liked[key]
	return s.liked[key], nil
}

func (s *fakeLikeStore) LikedVideos(ctx context.Context, userID string, page models.Page) ([]models.VideoView, int, error) {
	return nil, 0, nil
}

type fakePlaylistStore struct {
	playlists map[string]models.Playlist
	entries   map[string][]string
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{
		playlists: make(map[string]models.Playlist),
		entries:   make(map[string][]string),
	}
}

func (s *fakePlaylistStore) Create(ctx context.Context, playlist models.Playlist) error {
	for _, existing := range s.playlists {
		if existing.OwnerID == playlist.OwnerID && existing.Name == playlist.Name {
			return repositories.ErrConflict
		}
	}
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *fakePlaylistStore) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fakePlaylistStore) ListForUser(ctx context.Context, userID string) ([]models.Playlist, error) {
	var out []models.Playlist
	for _, p := range s.playlists {
		if p.OwnerID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePlaylistStore) GetView(ctx context.Context, id, viewerID string) (models.PlaylistView, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.PlaylistView{}, repositories.ErrNotFound
	}
	return models.PlaylistView{ID: playlist.ID, Name: playlist.Name, Description: playlist.Description}, nil
}

func (s *fakePlaylistStore) AddVideo(ctx context.Context, playlistID, ownerID, videoID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok || playlist.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	s.entries[playlistID] = append(s.entries[playlistID], videoID)
	return nil
}

func (s *fakePlaylistStore) RemoveVideo(ctx context.Context, playlistID, ownerID, videoID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok || playlist.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	kept := s.entries[playlistID][:0]
	removed := false
	for _, id := range s.entries[playlistID] {
		if id == videoID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	if !removed {
		return repositories.ErrNotFound
	}
	s.entries[playlistID] = kept
	return nil
}

func (s *fakePlaylistStore) UpdateDetails(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok || playlist.OwnerID != ownerID {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.Name, playlist.Description = name, description
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) Delete(ctx context.Context, id, ownerID string) error {
	playlist, ok := s.playlists[id]
	if !ok || playlist.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

type fakeSubscriptionStore struct {
	pairs map[string]bool
}

func (s *fakeSubscriptionStore) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, repositories.ErrSelfSubscription
	}
	if s.pairs == nil {
		s.pairs = make(map[string]bool)
	}
	key := subscriberID + ":" + channelID
	s.pairs[key] = !s.pairs[key]
	return s.pairs[key], nil
}

func (s *fakeSubscriptionStore) Subscribers(ctx context.Context, channelID string, page models.Page) ([]models.PublicProfile, models.PageMeta, error) {
	return nil, models.NewPageMeta(page, 0), nil
}

func (s *fakeSubscriptionStore) SubscribedChannels(ctx context.Context, subscriberID string, page models.Page) ([]models.PublicProfile, models.PageMeta, error) {
	return nil, models.NewPageMeta(page, 0), nil
}

type fakeTweetStore struct {
	tweets map[string]models.Tweet
}

func (s *fakeTweetStore) Create(ctx context.Context, tweet models.Tweet) error {
	if s.tweets == nil {
		s.tweets = make(map[string]models.Tweet)
	}
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *fakeTweetStore) ListForUser(ctx context.Context, userID string, page models.Page) ([]models.TweetView, int, error) {
	var views []models.TweetView
	for _, t := range s.tweets {
		if t.OwnerID == userID {
			views = append(views, models.TweetView{ID: t.ID, Content: t.Content})
		}
	}
	return views, len(views), nil
}

func (s *fakeTweetStore) UpdateContent(ctx context.Context, id, ownerID, content string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok || tweet.OwnerID != ownerID {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *fakeTweetStore) Delete(ctx context.Context, id, ownerID string) error {
	tweet, ok := s.tweets[id]
	if !ok || tweet.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}
