package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRefDecode(t *testing.T) {
	mime, data, err := ImageRef("data:image/webp;base64,aGVsbG8=").Decode()
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mime)
	assert.Equal(t, []byte("hello"), data)

	_, _, err = ImageRef("https://example.com/a.png").Decode()
	assert.Error(t, err)

	_, _, err = ImageRef("data:image/png;base64").Decode()
	assert.Error(t, err, "missing comma")

	_, _, err = ImageRef("data:image/png,plain").Decode()
	assert.Error(t, err, "not base64")
}

func TestImageRefMIMEType(t *testing.T) {
	assert.Equal(t, "image/png", ImageRef("data:image/png;base64,AAAA").MIMEType())
	assert.Equal(t, defaultImageMIME, ImageRef("https://example.com/a").MIMEType())
	assert.True(t, ImageRef("data:,").IsDataURL())
	assert.False(t, ImageRef("http://x").IsDataURL())
}

func TestImageRefValidate(t *testing.T) {
	tests := []struct {
		ref   ImageRef
		valid bool
	}{
		{"https://example.com/q.png", true},
		{"http://cdn.example.com/a.jpg?size=large", true},
		{"data:image/png;base64,aGVsbG8=", true},
		{"data:;base64,aGVsbG8=", true},
		{"not a url", false},
		{"ftp://example.com/a.png", false},
		{"https://", false},
		{"/relative/path.png", false},
		{"data:image/png;base64,@@@notbase64", false},
		{"data:image/png,plain", false},
		{"data:image/png;base64,", false},
		{"data:text/plain;base64,aGVsbG8=", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.ref), func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
