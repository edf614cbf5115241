package telegram

import (
	"bytes"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// StickerSide is the length the longer side of a static sticker must have.
const StickerSide = 512

// LoadSticker reads an image and scales it so its longer side is StickerSide,
// re-encoded as PNG.
func LoadSticker(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sticker %s", path)
	}

	bounds := img.Bounds()
	if bounds.Dx() >= bounds.Dy() {
		img = imaging.Resize(img, StickerSide, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, StickerSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "failed to encode sticker")
	}
	return buf.Bytes(), nil
}
