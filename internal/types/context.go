package types

import "time"

// Context is the ambient, persisted identity singleton described in §4.2.
// It is the only legal identity source for operations enqueued while
// offline.
type Context struct {
	UserID    string    `json:"userId"`
	AccountID string    `json:"accountId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsSet reports whether both identity fields are present.
func (c *Context) IsSet() bool {
	return c != nil && c.UserID != "" && c.AccountID != ""
}
