package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"chatapi/application/ports"
	"chatapi/domain/authz"
	"chatapi/domain/entities"
	apperrors "chatapi/pkg/errors"
)

const (
	// UploadURLTTL bounds how long a presigned write URL stays valid.
	UploadURLTTL = time.Hour
	// DownloadURLTTL bounds how long a presigned read URL stays valid.
	DownloadURLTTL = 24 * time.Hour
)

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// UploadTicket is a presigned write URL and the object key it writes.
type UploadTicket struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expiresAt"`
}

// DownloadLink is a presigned read URL.
type DownloadLink struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expiresAt"`
}

// FileService hands out signed URLs for attachments. Download keys are
// relative to downloadPrefix, where the ingestion pipeline stores raw text.
type FileService struct {
	objects        ports.ObjectStore
	ids            ports.IDGenerator
	clock          ports.Clock
	downloadPrefix string
}

func NewFileService(objects ports.ObjectStore, ids ports.IDGenerator, clock ports.Clock, downloadPrefix string) *FileService {
	return &FileService{objects: objects, ids: ids, clock: clock, downloadPrefix: downloadPrefix}
}

// SanitizeFilename replaces every character outside [A-Za-z0-9-_.] with _.
func SanitizeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "_")
}

// PresignUpload returns a write URL for <prefix><id>_<filename>.
func (s *FileService) PresignUpload(ctx context.Context, filename, contentType, prefix string) (*UploadTicket, error) {
	if _, err := authz.Require(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(filename) == "" {
		return nil, apperrors.NewInvalidInputError("filename is required")
	}
	if strings.Contains(prefix, "..") {
		return nil, apperrors.NewInvalidInputError("invalid prefix")
	}

	key := prefix + s.ids.NewID() + "_" + SanitizeFilename(filename)
	url, err := s.objects.PresignUpload(ctx, key, contentType, UploadURLTTL)
	if err != nil {
		return nil, apperrors.NewExternalError("object-store", err)
	}
	return &UploadTicket{Key: key, URL: url, ExpiresAt: s.clock.Now().Add(UploadURLTTL).Unix()}, nil
}

// DownloadURL returns a read URL for a stored file or avatar key.
func (s *FileService) DownloadURL(ctx context.Context, key string) (*DownloadLink, error) {
	if _, err := authz.Require(ctx); err != nil {
		return nil, err
	}
	if err := validateObjectKey(key); err != nil {
		return nil, err
	}
	url, err := s.objects.PresignDownload(ctx, s.downloadPrefix+key, DownloadURLTTL)
	if err != nil {
		return nil, apperrors.NewExternalError("object-store", err)
	}
	return &DownloadLink{URL: url, ExpiresAt: s.clock.Now().Add(DownloadURLTTL).Unix()}, nil
}

// Content returns the stored object as text.
func (s *FileService) Content(ctx context.Context, key string) (string, error) {
	if _, err := authz.Require(ctx); err != nil {
		return "", err
	}
	if err := validateObjectKey(key); err != nil {
		return "", err
	}
	data, err := s.objects.GetContent(ctx, key)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", err
		}
		return "", apperrors.NewExternalError("object-store", err)
	}
	return string(data), nil
}

// SignAvatar sets u.AvatarURL to a read URL for the avatar key, which is
// the full key returned by PresignUpload. Users without an avatar are left
// alone.
func (s *FileService) SignAvatar(ctx context.Context, u *entities.User) error {
	if u == nil || u.Avatar == "" {
		return nil
	}
	if err := validateObjectKey(u.Avatar); err != nil {
		return err
	}
	url, err := s.objects.PresignDownload(ctx, u.Avatar, DownloadURLTTL)
	if err != nil {
		return apperrors.NewExternalError("object-store", err)
	}
	u.AvatarURL = url
	return nil
}

func validateObjectKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return apperrors.NewInvalidInputError("key is required")
	}
	if strings.Contains(key, "..") {
		return apperrors.NewInvalidInputError("invalid key")
	}
	return nil
}
