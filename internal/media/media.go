// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media hands out presigned upload URLs for profile media (avatar,
background music, background video).

The browser uploads straight to object storage; the API never proxies file
bytes. Object keys are namespaced per user and kind:

	users/{userID}/{kind}/{uuid}{ext}
*/
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/validate"
	"github.com/taibuivan/uservault/pkg/uuid"
)

// Kind identifies which profile slot an upload fills.
type Kind string

const (
	KindAvatar Kind = "avatar"
	KindMusic  Kind = "music"
	KindVideo  Kind = "video"
)

// UploadExpiry is how long a presigned URL stays usable.
const UploadExpiry = 15 * time.Minute

// contentTypes maps each kind to its accepted MIME types and file extensions.
var contentTypes = map[Kind]map[string]string{
	KindAvatar: {
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	},
	KindMusic: {
		"audio/mpeg": ".mp3",
		"audio/ogg":  ".ogg",
		"audio/wav":  ".wav",
	},
	KindVideo: {
		"video/mp4":  ".mp4",
		"video/webm": ".webm",
	},
}

// Upload is the upload-profile-media response document.
type Upload struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
	ExpiresIn int    `json:"expiresIn"`
}

// Presigner signs object PUT requests.
type Presigner interface {
	PresignPut(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error)
}

// Service issues upload URLs.
type Service struct {
	presigner Presigner
}

// NewService creates a media [Service]. A nil presigner disables uploads.
func NewService(presigner Presigner) *Service {
	return &Service{presigner: presigner}
}

/*
RequestUpload validates the request and presigns a PUT for a fresh object key.

Returns:
  - *Upload: URL, key and lifetime in seconds
  - error: ValidationError for an unknown kind or content type,
    ServiceUnavailable when storage is not configured
*/
func (service *Service) RequestUpload(ctx context.Context, userID string, kind Kind, contentType string) (*Upload, error) {
	allowed, known := contentTypes[kind]

	v := &validate.Validator{}
	v.OneOf("kind", string(kind), string(KindAvatar), string(KindMusic), string(KindVideo))
	if known {
		_, ok := allowed[contentType]
		v.Custom("contentType", !ok, "Unsupported content type for "+string(kind))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if service.presigner == nil {
		return nil, apperr.ServiceUnavailable("Media uploads are not configured")
	}

	objectKey := fmt.Sprintf("users/%s/%s/%s%s", userID, kind, uuid.New(), allowed[contentType])

	url, err := service.presigner.PresignPut(ctx, objectKey, contentType, UploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("media_presign_failed: %w", err)
	}

	return &Upload{
		UploadURL: url,
		ObjectKey: objectKey,
		ExpiresIn: int(UploadExpiry / time.Second),
	}, nil
}
