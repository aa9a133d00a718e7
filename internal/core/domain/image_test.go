package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageSizeNormalize(t *testing.T) {
	assert.Equal(t, DefaultPosterSize, ImageSize{}.Normalize())

	// Missing dimension is derived from the 2:3 poster aspect.
	assert.Equal(t, ImageSize{Width: 200, Height: 300}, ImageSize{Width: 200}.Normalize())
	assert.Equal(t, ImageSize{Width: 200, Height: 300}, ImageSize{Height: 300}.Normalize())

	// Oversized requests are clamped.
	clamped := ImageSize{Width: 9999, Height: 9999}.Normalize()
	assert.Equal(t, 2000, clamped.Width)
	assert.Equal(t, 3000, clamped.Height)
}

func TestPlaceholderKeyDeterministic(t *testing.T) {
	size := ImageSize{Width: 300, Height: 450}

	a := PlaceholderKey("Inception", size)
	b := PlaceholderKey("Inception", size)
	assert.Equal(t, a, b, "identical titles must never regenerate")

	// Title normalization folds case and punctuation variants together.
	assert.Equal(t, a, PlaceholderKey("  INCEPTION! ", size))

	assert.NotEqual(t, a, PlaceholderKey("Interstellar", size))
	assert.NotEqual(t, a, PlaceholderKey("Inception", ImageSize{Width: 100, Height: 150}))
}

func TestContentHashStable(t *testing.T) {
	data := []byte("not really a png")
	assert.Equal(t, ContentHash(data), ContentHash(data))
	assert.NotEqual(t, ContentHash(data), ContentHash([]byte("other bytes")))
}
