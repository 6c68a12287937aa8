// Package media разбирает изображения из запросов и управляет их удалением из хранилища.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize — предельный размер декодированного изображения.
const MaxImageSize = 10 << 20

// ErrInvalidImage возвращается, если строка не является изображением в base64 data URI.
var ErrInvalidImage = errors.New("invalid image")

var formats = map[string]struct {
	contentType string
	ext         string
}{
	"png":  {"image/png", "png"},
	"jpeg": {"image/jpeg", "jpg"},
	"gif":  {"image/gif", "gif"},
}

// Image — декодированное изображение, готовое к загрузке.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURI разбирает строку вида data:image/png;base64,....
// Формат определяется по содержимому, а не по заявленному MIME.
func DecodeDataURI(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: ожидается data URI с base64", ErrInvalidImage)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize {
		return nil, fmt.Errorf("%w: размер превышает %d байт", ErrInvalidImage, MaxImageSize)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	f, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("%w: неподдерживаемый формат %s", ErrInvalidImage, format)
	}

	return &Image{Data: data, ContentType: f.contentType, Ext: f.ext}, nil
}

// Key строит уникальный ключ объекта в хранилище: recipes/images/<uuid>.png
func (img *Image) Key(prefix string) string {
	return path.Join(prefix, uuid.NewString()+"."+img.Ext)
}

const (
	RecipeImagesPrefix = "recipes/images"
	AvatarsPrefix      = "users/avatars"
)
