package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const maxPhotoBytes = 2 << 20

var errPhotoNotImage = errors.New("photo must be an image")

// validatePhoto accepts any opaque reference. Inline data URIs are decoded and
// must carry an image payload within the size limit.
func validatePhoto(photo string) error {
	photo = strings.TrimSpace(photo)
	if !strings.HasPrefix(photo, "data:") {
		return nil
	}

	comma := strings.Index(photo, ",")
	if comma < 0 {
		return fmt.Errorf("photo data uri is malformed")
	}

	header := photo[len("data:"):comma]
	if !strings.HasSuffix(header, ";base64") {
		return fmt.Errorf("photo data uri must be base64 encoded")
	}

	payload, err := base64.StdEncoding.DecodeString(photo[comma+1:])
	if err != nil {
		return fmt.Errorf("photo data uri is not valid base64: %w", err)
	}
	if len(payload) > maxPhotoBytes {
		return fmt.Errorf("photo exceeds %d bytes", maxPhotoBytes)
	}

	detected := mimetype.Detect(payload)
	if !strings.HasPrefix(detected.String(), "image/") {
		return fmt.Errorf("%w: detected %s", errPhotoNotImage, detected.String())
	}

	return nil
}
