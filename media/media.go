// Package media abstracts the blob-upload collaborator: uploads return a
// serving URL plus an opaque media id that can later be released.
package media

import (
	"context"
	"errors"
)

// PlaceholderImage is assigned to every new account until the user uploads
// a picture. PlaceholderMediaID marks media that must never be released.
const (
	PlaceholderImage   = "https://res.cloudinary.com/ripple/image/upload/userPlaceHolder.png"
	PlaceholderMediaID = "defaultProfileImage"
)

type Upload struct {
	URL     string
	MediaID string
}

type Store interface {
	Upload(ctx context.Context, data []byte, mimeType string) (Upload, error)
	Delete(ctx context.Context, mediaID string) error
}

// Disabled rejects uploads; used when no media backend is configured so the
// rest of the system still runs.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, data []byte, mimeType string) (Upload, error) {
	return Upload{}, errors.New("media uploads are not configured")
}

func (Disabled) Delete(ctx context.Context, mediaID string) error { return nil }
