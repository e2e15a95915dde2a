package services

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

const BucketImages = "images"

const msgImageNotFound = "Image not found"

type MediaService struct {
	store    store.MediaStore
	basePath string
}

func NewMediaService(st store.MediaStore, basePath string) *MediaService {
	return &MediaService{store: st, basePath: basePath}
}

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// SaveImage stores body on disk and records it. The content type is sniffed
// from the bytes; anything that is not an image is rejected.
func (s *MediaService) SaveImage(ctx context.Context, uploaderID, filename string, body io.Reader) (models.MediaAsset, string, error) {
	reader := bufio.NewReaderSize(body, 512)
	head, err := reader.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return models.MediaAsset{}, "", errors.Wrap(err, "read upload")
	}
	if len(head) == 0 {
		return models.MediaAsset{}, "", ErrBadRequest("No file uploaded")
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return models.MediaAsset{}, "", ErrBadRequest("Only image files are allowed")
	}

	assetID := uuid.NewString()
	bucketPath, err := EnsureStoragePath(s.basePath, BucketImages)
	if err != nil {
		return models.MediaAsset{}, "", err
	}
	targetPath := filepath.Join(bucketPath, assetID)

	file, err := os.Create(targetPath)
	if err != nil {
		return models.MediaAsset{}, "", err
	}
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), reader)
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return models.MediaAsset{}, "", err
	}

	asset := models.MediaAsset{
		ID:          assetID,
		Filename:    null.NewString(filepath.Base(filename), filename != ""),
		ContentType: contentType,
		SizeBytes:   size,
		Sha256:      hex.EncodeToString(hasher.Sum(nil)),
		UploadedBy:  null.NewString(uploaderID, uploaderID != ""),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateMediaAsset(ctx, asset); err != nil {
		_ = os.Remove(targetPath)
		return models.MediaAsset{}, "", err
	}
	return asset, BuildAssetURL(assetID), nil
}

// Open returns the stored image and its content. The caller closes it.
func (s *MediaService) Open(ctx context.Context, id string) (models.MediaAsset, *os.File, error) {
	if !validID(id) {
		return models.MediaAsset{}, nil, ErrNotFound(msgImageNotFound)
	}
	asset, err := s.store.GetMediaAsset(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.MediaAsset{}, nil, ErrNotFound(msgImageNotFound)
	}
	if err != nil {
		return models.MediaAsset{}, nil, err
	}
	file, err := os.Open(filepath.Join(s.basePath, BucketImages, asset.ID))
	if os.IsNotExist(err) {
		return models.MediaAsset{}, nil, ErrNotFound(msgImageNotFound)
	}
	if err != nil {
		return models.MediaAsset{}, nil, err
	}
	return asset, file, nil
}

func BuildAssetURL(assetID string) string {
	return "/api/media/" + assetID
}
