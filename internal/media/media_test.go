package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/GoArmGo/Foodgram/internal/logger"
	"github.com/GoArmGo/Foodgram/internal/messaging/payloads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeDataURIPNG(t *testing.T) {
	img, err := DecodeDataURI(pngDataURI(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)
	assert.NotEmpty(t, img.Data)

	key := img.Key(RecipeImagesPrefix)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
}

func TestDecodeDataURIRejects(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"no header":   "aGVsbG8=",
		"not image":   "data:text/plain;base64,aGVsbG8=",
		"bad base64":  "data:image/png;base64,@@@",
		"not decoded": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")),
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataURI(in)
			assert.True(t, errors.Is(err, ErrInvalidImage))
		})
	}
}

type recordingFiles struct {
	deleted []string
	err     error
}

func (f *recordingFiles) UploadFile(context.Context, string, io.Reader, string) (string, error) {
	return "", nil
}

func (f *recordingFiles) DeleteFile(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *recordingFiles) PublicURL(key string) string { return key }

func TestInlineCleaner(t *testing.T) {
	files := &recordingFiles{}
	c := NewInlineCleaner(files, logger.Discard())

	require.NoError(t, c.PublishMediaCleanup(context.Background(), payloads.MediaCleanupPayload{Key: "users/avatars/a.png"}))
	require.NoError(t, c.PublishMediaCleanup(context.Background(), payloads.MediaCleanupPayload{}))
	assert.Equal(t, []string{"users/avatars/a.png"}, files.deleted)

	files.err = errors.New("boom")
	assert.Error(t, c.PublishMediaCleanup(context.Background(), payloads.MediaCleanupPayload{Key: "x"}))
}
