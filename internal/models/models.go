package models

import (
	"math"
	"time"
)

// User represents an account within the ViewTube platform. Password holds the
// bcrypt hash, never the raw credential. RefreshToken mirrors the single
// active refresh token issued to the account and is empty once revoked.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	AvatarKey     string
	CoverImageURL string
	CoverImageKey string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicProfile is the projection of a user that is safe to embed in other
// payloads. Credential and token fields never appear here.
type PublicProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullname"`
	Avatar   string `json:"avatar"`
}

// PublicProfile derives the public-safe projection of the user.
func (u User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.AvatarURL,
	}
}

// Video is an uploaded video and its stored media references. The *Key fields
// identify the remote objects so they can be deleted later.
type Video struct {
	ID           string
	OwnerID      string
	VideoURL     string
	VideoKey     string
	ThumbnailURL string
	ThumbnailKey string
	Title        string
	Description  string
	Duration     float64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is a user comment attached to a video.
type Comment struct {
	ID        string
	VideoID   string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tweet is a short standalone post by a user.
type Tweet struct {
	ID        string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Playlist groups an ordered list of videos under an owner-unique name.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// VideoView joins a video with its owner's public profile and the engagement
// aggregates computed for the requesting viewer.
type VideoView struct {
	ID           string        `json:"id"`
	Owner        PublicProfile `json:"owner"`
	VideoURL     string        `json:"videoFile"`
	ThumbnailURL string        `json:"thumbnail"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Duration     float64       `json:"duration"`
	IsPublished  bool          `json:"isPublished"`
	LikeCount    int           `json:"likeCount"`
	IsLiked      bool          `json:"isLiked"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// CommentView joins a comment with its owner and viewer-relative flags.
type CommentView struct {
	ID        string        `json:"id"`
	VideoID   string        `json:"videoId"`
	Owner     PublicProfile `json:"owner"`
	Content   string        `json:"content"`
	IsOwner   bool          `json:"isOwner"`
	LikeCount int           `json:"likeCount"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// TweetView joins a tweet with its owner's public profile.
type TweetView struct {
	ID        string        `json:"id"`
	Owner     PublicProfile `json:"owner"`
	Content   string        `json:"content"`
	LikeCount int           `json:"likeCount"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PlaylistView is a playlist with its resolved video entries.
type PlaylistView struct {
	ID          string        `json:"id"`
	Owner       PublicProfile `json:"owner"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Videos      []VideoView   `json:"videos"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ChannelProfile is the denormalized channel page for a user.
type ChannelProfile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"fullname"`
	Email           string `json:"email"`
	Avatar          string `json:"avatar"`
	CoverImage      string `json:"coverImage"`
	SubscriberCount int    `json:"subscriberCount"`
	SubscribedTo    int    `json:"channelsSubscribedTo"`
	IsSubscribed    bool   `json:"isSubscribed"`
}

// Page is a validated pagination request.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// PageMeta describes the position of a page within the full result set.
type PageMeta struct {
	PageNumber  int  `json:"pageNumber"`
	Limit       int  `json:"limit"`
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NewPageMeta computes page metadata for the given request and total count.
func NewPageMeta(page Page, totalCount int) PageMeta {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = int(math.Ceil(float64(totalCount) / float64(page.Limit)))
	}
	return PageMeta{
		PageNumber:  page.Number,
		Limit:       page.Limit,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasNextPage: page.Number < totalPages,
		HasPrevPage: page.Number > 1,
	}
}
