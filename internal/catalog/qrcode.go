package catalog

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

type QRGenerator interface {
	PNG(content string) ([]byte, error)
}

type pngGenerator struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewQRGenerator() QRGenerator {
	return &pngGenerator{size: qrSize, level: qrcode.Medium}
}

func (g *pngGenerator) PNG(content string) ([]byte, error) {
	return qrcode.Encode(content, g.level, g.size)
}

// RestaurantURL is the public page a menu QR code points at.
func RestaurantURL(baseURL, restaurantID string) string {
	return strings.TrimRight(baseURL, "/") + "/restaurants/" + restaurantID
}
