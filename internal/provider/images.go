package provider

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ImageRef references an image attached to a request: either a remote
// http(s) URL or a data URL ("data:image/png;base64,....").
type ImageRef string

// defaultImageMIME is assumed for remote URLs, which carry no type.
const defaultImageMIME = "image/jpeg"

// IsDataURL reports whether the reference embeds its bytes.
func (r ImageRef) IsDataURL() bool {
	return strings.HasPrefix(string(r), "data:")
}

// Decode splits a base64 data URL into its MIME type and raw bytes.
func (r ImageRef) Decode() (mime string, data []byte, err error) {
	if !r.IsDataURL() {
		return "", nil, fmt.Errorf("image is not a data URL")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(string(r), "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload")
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	if mime == "" {
		mime = defaultImageMIME
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URL: %w", err)
	}
	return mime, data, nil
}

// Validate checks that the reference is an http(s) URL with a host or a
// base64 data URL carrying a non-empty image.
func (r ImageRef) Validate() error {
	if r.IsDataURL() {
		mime, data, err := r.Decode()
		if err != nil {
			return err
		}
		if !strings.HasPrefix(mime, "image/") {
			return fmt.Errorf("data URL type %q is not an image", mime)
		}
		if len(data) == 0 {
			return errors.New("data URL is empty")
		}
		return nil
	}

	u, err := url.Parse(string(r))
	if err != nil {
		return fmt.Errorf("parsing image URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("image must be an http(s) URL or a data URL")
	}
	return nil
}

// MIMEType returns the declared type of a data URL, or a default for remote
// URLs.
func (r ImageRef) MIMEType() string {
	if r.IsDataURL() {
		header, _, _ := strings.Cut(strings.TrimPrefix(string(r), "data:"), ",")
		if mime, _, _ := strings.Cut(header, ";"); mime != "" {
			return mime
		}
	}
	return defaultImageMIME
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
