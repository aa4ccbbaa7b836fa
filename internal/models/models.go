package models

import "time"

// MediaAsset references an object stored with the external media host.
// Duration is only populated for video uploads that report one.
type MediaAsset struct {
	URL      string  `json:"url"`
	Key      string  `json:"-"`
	Duration float64 `json:"-"`
}

// User represents an account within the ClipStream platform.
// Password and RefreshToken are never serialized to API responses.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Password     string     `json:"-"`
	FullName     string     `json:"fullName"`
	Avatar       MediaAsset `json:"avatar"`
	CoverImage   MediaAsset `json:"coverImage"`
	WatchHistory []string   `json:"watchHistory"`
	RefreshToken string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OwnerSummary is the display projection attached wherever a user is
// embedded in another resource (comment authors, video owners,
// subscriber lists). It intentionally carries no credential fields.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Summary projects the user into its embeddable display form.
func (u User) Summary() OwnerSummary {
	return OwnerSummary{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar.URL,
	}
}

// Video represents an uploaded video and its stored assets.
type Video struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner"`
	VideoFile   MediaAsset `json:"videoFile"`
	Thumbnail   MediaAsset `json:"thumbnail"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Views       int64      `json:"views"`
	IsPublished bool       `json:"isPublished"`
	Duration    float64    `json:"duration"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Comment is a node in a video's comment forest. VideoID is set only on
// root comments; replies carry an empty VideoID and are referenced by
// their parent's Replies sequence.
type Comment struct {
	ID          string    `json:"id"`
	CommentedBy string    `json:"commentedBy"`
	VideoID     string    `json:"videoId,omitempty"`
	Content     string    `json:"content"`
	Replies     []string  `json:"replies"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LikeTargetKind enumerates the resources a like may point at.
type LikeTargetKind string

const (
	LikeTargetVideo   LikeTargetKind = "video"
	LikeTargetComment LikeTargetKind = "comment"
	LikeTargetTweet   LikeTargetKind = "tweet"
)

// Valid reports whether the kind is one of the known target kinds.
func (k LikeTargetKind) Valid() bool {
	switch k {
	case LikeTargetVideo, LikeTargetComment, LikeTargetTweet:
		return true
	}
	return false
}

// LikeTarget is a tagged reference to exactly one likeable resource.
type LikeTarget struct {
	Kind LikeTargetKind `json:"kind"`
	ID   string         `json:"id"`
}

// Like records an actor's like state against a single target. Unliking
// flips IsLiked rather than deleting the row.
type Like struct {
	ID        string     `json:"id"`
	LikedBy   string     `json:"likedBy"`
	Target    LikeTarget `json:"target"`
	IsLiked   bool       `json:"isLiked"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Playlist groups videos under a name for one owner. Videos holds video
// ids in insertion order with duplicates suppressed on add.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner"`
	Videos      []string  `json:"videos"`
	IsPrivate   bool      `json:"isPrivate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tweet is a short text post owned by a user.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subscription is a subscriber -> channel edge. Existence of the edge
// is the subscribed state; there is no boolean flag.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WatchHistoryEntry is a watch-history video resolved together with a
// display projection of its owner.
type WatchHistoryEntry struct {
	Video Video        `json:"video"`
	Owner OwnerSummary `json:"owner"`
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
