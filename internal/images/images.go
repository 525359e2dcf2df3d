// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package images decodes the base64 data-URI image payloads clients embed
// in JSON bodies ("data:image/png;base64,...") and validates them before
// they reach storage.
package images

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxSize caps decoded image payloads at 10 MiB.
const MaxSize = 10 << 20

// ErrInvalidDataURI is returned when the payload is not a well-formed
// base64 image data URI.
var ErrInvalidDataURI = errors.New("invalid image data URI")

// ErrTooLarge is returned when the decoded image exceeds MaxSize.
var ErrTooLarge = errors.New("image exceeds maximum size")

// allowed maps accepted content types to their file extensions.
var allowed = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a decoded upload ready for storage.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Decode parses a base64 data URI into raw bytes. The declared media type
// is ignored in favour of sniffing the actual bytes, so a payload labelled
// PNG but containing something else is rejected.
func Decode(dataURI string) (*Image, error) {
	if !strings.HasPrefix(dataURI, "data:") {
		return nil, ErrInvalidDataURI
	}

	comma := strings.IndexByte(dataURI, ',')
	if comma < 0 {
		return nil, ErrInvalidDataURI
	}
	meta, payload := dataURI[len("data:"):comma], dataURI[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, ErrInvalidDataURI
	}

	// 4 base64 chars encode 3 bytes; reject oversized payloads before
	// decoding them.
	if len(payload)/4*3 > MaxSize {
		return nil, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidDataURI
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowed[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidDataURI, contentType)
	}

	return &Image{Data: data, ContentType: contentType, Extension: ext}, nil
}
