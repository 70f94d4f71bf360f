package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Cloudinary implements Store on top of the Cloudinary upload API.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds the collaborator from a CLOUDINARY_URL-style URL.
// Construct once at startup and inject; the client is safe for reuse.
func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, data []byte, mimeType string) (Upload, error) {
	params := uploader.UploadParams{
		Folder:   c.folder,
		PublicID: uuid.NewString(),
	}
	result, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), params)
	if err != nil {
		return Upload{}, err
	}
	return Upload{URL: result.SecureURL, MediaID: result.PublicID}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, mediaID string) error {
	if mediaID == "" || mediaID == PlaceholderMediaID {
		return nil
	}
	_, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: mediaID})
	return err
}
