package transport

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// qrImageSize is the rendered side length in pixels. 256 keeps the payload
// small enough for a websocket frame while staying scannable on phone screens.
const qrImageSize = 256

// QRDataURL renders a pairing code as a PNG data URL ready for an <img> tag.
func QRDataURL(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
