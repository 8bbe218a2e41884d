package validation

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func upload(t *testing.T, filename string, content []byte) (*multipart.FileHeader, multipart.File) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	header := form.File["avatar"][0]
	file, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return header, file
}

func TestValidateFile_AcceptsPNGAndRewinds(t *testing.T) {
	content := pngBytes(t)
	header, file := upload(t, "me.png", content)

	require.NoError(t, ValidateFile(header, file, AvatarConstraints(1_000_000)))

	read, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, content, read)
}

func TestValidateFile_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		maxSize  int64
	}{
		{"wrong extension", "me.pdf", pngBytes(t), 1_000_000},
		{"text disguised as png", "me.png", []byte("hello, not an image"), 1_000_000},
		{"too large", "me.png", pngBytes(t), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, file := upload(t, tt.filename, tt.content)

			err := ValidateFile(header, file, AvatarConstraints(tt.maxSize))
			var uerr *UploadError
			require.ErrorAs(t, err, &uerr)
			assert.NotEmpty(t, uerr.Reason)
		})
	}
}
