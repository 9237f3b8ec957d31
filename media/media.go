// Package media stores attendee profile photos on Cloudinary.
package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

var (
	ErrUnavailable   = errors.New("image host unavailable")
	ErrNotConfigured = errors.New("image host not configured")
)

// Uploader stores a data URI and returns its public URL.
type Uploader interface {
	UploadPhoto(ctx context.Context, dataURI, publicID string) (string, error)
}

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

type Cloudinary struct {
	api    uploadAPI
	folder string
	log    *zerolog.Logger
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string, logger *zerolog.Logger) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &Cloudinary{api: &cld.Upload, folder: folder, log: logger}, nil
}

func (c *Cloudinary) UploadPhoto(ctx context.Context, dataURI, publicID string) (string, error) {
	res, err := c.api.Upload(ctx, dataURI, uploader.UploadParams{
		Folder:       c.folder,
		PublicID:     publicID,
		Overwrite:    api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		c.log.Error().Err(err).Str("public_id", publicID).Msg("photo upload failed")
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if res.Error.Message != "" {
		c.log.Error().Str("public_id", publicID).Str("cloudinary_error", res.Error.Message).Msg("photo rejected")
		return "", fmt.Errorf("%w: %s", ErrUnavailable, res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("%w: empty url in upload response", ErrUnavailable)
	}
	return res.SecureURL, nil
}

// Disabled is used when no image host is configured.
type Disabled struct{}

func (Disabled) UploadPhoto(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}
