package domain

import (
	"errors"
	"strings"
)

// DefaultMaxUploadBytes caps uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 5 << 20

var (
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file exceeds the upload limit")
)

// Image is a file received from a client, held in memory.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (i Image) Size() int64 { return int64(len(i.Data)) }

// Validate checks the image against the byte limit.
func (i Image) Validate(maxBytes int64) error {
	if len(i.Data) == 0 {
		return ErrEmptyFile
	}
	if maxBytes > 0 && i.Size() > maxBytes {
		return ErrFileTooLarge
	}
	return nil
}

// BaseName returns the filename without directories or extension.
func (i Image) BaseName() string {
	name := i.Filename
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}

// StoredImage describes an asset accepted by the image host.
type StoredImage struct {
	PublicID     string
	URL          string
	SecureURL    string
	Format       string
	ResourceType string
	Bytes        int64
}
