package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	c := &Client{bucketName: "media", publicURL: "https://cdn.foodgram.test"}

	assert.Equal(t, "https://cdn.foodgram.test/media/recipes/images/a.png", c.PublicURL("recipes/images/a.png"))
	assert.Equal(t, "https://cdn.foodgram.test/media/users/avatars/b.jpg", c.PublicURL("/users/avatars/b.jpg"))
}
