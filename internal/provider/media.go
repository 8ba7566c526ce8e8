package provider

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeInlineData decodes a base64 media payload as returned inline by
// generation APIs. Accepts both bare base64 and data: URIs; the reported
// MIME type wins over anything embedded in a URI.
func DecodeInlineData(mimeType, payload string) (MediaFile, error) {
	raw := payload
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return MediaFile{}, fmt.Errorf("malformed data uri")
		}
		header := payload[5:idx]
		raw = payload[idx+1:]
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.SplitN(header, ";", 2)[0], ";")
		}
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some backends emit URL-safe base64 for media payloads.
		data, err = base64.URLEncoding.DecodeString(raw)
		if err != nil {
			return MediaFile{}, fmt.Errorf("decode media payload: %w", err)
		}
	}
	if len(data) == 0 {
		return MediaFile{}, fmt.Errorf("empty media payload")
	}

	return MediaFile{Data: data, Ext: ExtensionForMIME(mimeType)}, nil
}

// ExtensionForMIME guesses a file extension for a media MIME type.
// Unknown types fall back to .bin rather than failing the save.
func ExtensionForMIME(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
