package provider

import (
	"encoding/base64"
	"testing"
)

func TestDecodeInlineDataBare(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
	file, err := DecodeInlineData("image/png", payload)
	if err != nil {
		t.Fatalf("DecodeInlineData: %v", err)
	}
	if string(file.Data) != "fake png bytes" {
		t.Errorf("unexpected payload: %q", file.Data)
	}
	if file.Ext != ".png" {
		t.Errorf("expected .png, got %s", file.Ext)
	}
}

func TestDecodeInlineDataURI(t *testing.T) {
	payload := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg"))
	file, err := DecodeInlineData("", payload)
	if err != nil {
		t.Fatalf("DecodeInlineData: %v", err)
	}
	if file.Ext != ".jpg" {
		t.Errorf("expected .jpg from data uri mime, got %s", file.Ext)
	}
}

func TestDecodeInlineDataInvalid(t *testing.T) {
	if _, err := DecodeInlineData("image/png", "!!not-base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := DecodeInlineData("image/png", ""); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := DecodeInlineData("", "data:image/png;base64"); err == nil {
		t.Error("expected error for data uri without comma")
	}
}

func TestExtensionForMIME(t *testing.T) {
	cases := map[string]string{
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"IMAGE/JPEG":    ".jpg",
		"image/webp":    ".webp",
		"video/mp4":     ".mp4",
		"application/x": ".bin",
		"":              ".bin",
	}
	for mime, want := range cases {
		if got := ExtensionForMIME(mime); got != want {
			t.Errorf("%q: expected %s, got %s", mime, want, got)
		}
	}
}
