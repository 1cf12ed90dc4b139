// Package storage persists uploaded recipe images.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	// ErrDisallowedType is returned for files outside the image allow-list
	ErrDisallowedType = errors.New("file type not allowed")
	// ErrNotFound is returned when an image does not exist
	ErrNotFound = errors.New("image not found")
	// ErrInvalidName is returned for names that could escape the store
	ErrInvalidName = errors.New("invalid image name")
)

// AllowedExtensions lists the accepted image extensions, lowercase and without dot
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

// ImageStore saves, reads and removes images by generated name
type ImageStore interface {
	// Save stores r under a new collision-resistant name derived from originalName
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	// Open returns the image content. The caller closes it.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes the image. Deleting a missing image is not an error.
	Delete(ctx context.Context, name string) error
}

// AllowedImage reports whether filename has an allowed image extension
func AllowedImage(filename string) bool {
	ext := extension(filename)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ImageFileName builds "<uuid hex>_<slugified base>.<ext>" for an upload
func ImageFileName(originalName string) (string, error) {
	if !AllowedImage(originalName) {
		return "", ErrDisallowedType
	}
	ext := extension(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	safe := slug.Make(base)
	if safe == "" {
		safe = "image"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id + "_" + safe + "." + ext, nil
}

// ValidName rejects names that contain path elements
func ValidName(name string) bool {
	return name != "" &&
		name != "." &&
		!strings.Contains(name, "..") &&
		!strings.ContainsAny(name, `/\`)
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
