package types

import "time"

// Media is a locally stored binary blob owned by an Item.
type Media struct {
	ID        string     `json:"id"`
	ItemID    string     `json:"itemId"`
	AccountID string     `json:"accountId"`
	Filename  string     `json:"filename"`
	MimeType  string     `json:"mimeType"`
	Size      int64      `json:"size"`
	Bytes     []byte     `json:"-"`
	UploadedAt time.Time `json:"uploadedAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// MediaUpload is a queued intent to push a locally staged Media blob to the
// server, tracked independently of the operation queue (C3) because media
// payloads are binary-heavy.
type MediaUpload struct {
	ID         string         `json:"id"`
	MediaID    string         `json:"mediaId"`
	ItemID     string         `json:"itemId"`
	AccountID  string         `json:"accountId"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	QueuedAt   time.Time      `json:"queuedAt"`
	RetryCount int            `json:"retryCount"`
	LastError  string         `json:"lastError,omitempty"`
}

// OfflineMediaSentinel is the placeholder URL an entity record carries for
// a media reference until the upload completes (§4.6).
func OfflineMediaSentinel(mediaID string) string {
	return "offline://" + mediaID
}
