// Package attachment turns an image file picked by the user into the data URL
// the cars API stores alongside a listing.
package attachment

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sakif/car-listing/internal/apperror"
)

// MaxImageBytes is the largest source file accepted. Exactly 5 MiB is allowed.
const MaxImageBytes int64 = 5 * 1024 * 1024

// CheckSize rejects sizes above MaxImageBytes.
func CheckSize(size int64) error {
	if size > MaxImageBytes {
		return apperror.ImageTooLarge(size, MaxImageBytes)
	}
	return nil
}

// Encode reads the whole file from r and returns "data:<mime>;base64,<payload>".
// size is the length the caller was told about (multipart header, stat); the
// cap is enforced on it up front and again on the bytes actually read.
func Encode(r io.Reader, size int64) (string, error) {
	if err := CheckSize(size); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if err := CheckSize(n); err != nil {
		return "", err
	}
	return DataURL(buf.Bytes()), nil
}

// EncodeFile stats and encodes a local file.
func EncodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}
	return Encode(f, info.Size())
}

// DataURL encodes data with its sniffed MIME type. Parameters such as charset
// are dropped from the type.
func DataURL(data []byte) string {
	mime := mimetype.Detect(data).String()
	mime, _, _ = strings.Cut(mime, ";")
	return "data:" + strings.TrimSpace(mime) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsImageDataURL reports whether s is a data URL carrying an image type. Only
// those are ever placed in an <img src>.
func IsImageDataURL(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:image/")
}
