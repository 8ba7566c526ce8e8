package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestImageGenerate(t *testing.T) {
	png := base64.StdEncoding.EncodeToString([]byte("png bytes"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "a red fox" {
			t.Errorf("unexpected request: %+v", req)
		}
		fmt.Fprintf(w, `{
			"candidates": [{
				"content": {"parts": [
					{"text": "Here is your fox."},
					{"inlineData": {"mimeType": "image/png", "data": %q}}
				]}
			}]
		}`, png)
	}))
	defer srv.Close()

	p := NewImageProvider("k", "test-model")
	p.base = srv.URL

	res, err := p.Generate(context.Background(), &MediaRequest{Prompt: "a red fox"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].Ext != ".png" {
		t.Fatalf("unexpected files: %+v", res.Files)
	}
	if string(res.Files[0].Data) != "png bytes" {
		t.Errorf("payload not decoded")
	}
	if res.Text != "Here is your fox." {
		t.Errorf("unexpected text: %q", res.Text)
	}
}

func TestImageGenerateSendsSourceImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents[0].Parts) != 2 {
			t.Fatalf("expected prompt + image part, got %d", len(req.Contents[0].Parts))
		}
		inline := req.Contents[0].Parts[1].InlineData
		if inline == nil || inline.MIMEType != "image/jpeg" {
			t.Errorf("source image not forwarded: %+v", inline)
		}
		img := base64.StdEncoding.EncodeToString([]byte("edited"))
		fmt.Fprintf(w, `{"candidates": [{"content": {"parts": [{"inlineData": {"mimeType": "image/png", "data": %q}}]}}]}`, img)
	}))
	defer srv.Close()

	p := NewImageProvider("k", "m")
	p.base = srv.URL

	res, err := p.Generate(context.Background(), &MediaRequest{
		Prompt: "make it blue",
		Images: []MediaInput{{MIMEType: "image/jpeg", Data: []byte("source")}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Files) != 1 {
		t.Errorf("expected 1 file, got %d", len(res.Files))
	}
}

func TestImageGenerateBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	}))
	defer srv.Close()

	p := NewImageProvider("k", "m")
	p.base = srv.URL

	_, err := p.Generate(context.Background(), &MediaRequest{Prompt: "bad"})
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := Classify(err); kind != KindBlocked {
		t.Errorf("expected blocked, got %s", kind)
	}
}

func TestImageGenerateTextRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "I cannot create this, it violates policy."}]}}]}`))
	}))
	defer srv.Close()

	p := NewImageProvider("k", "m")
	p.base = srv.URL

	_, err := p.Generate(context.Background(), &MediaRequest{Prompt: "bad"})
	if kind := Classify(err); kind != KindBlocked {
		t.Errorf("text refusal mentioning policy should classify blocked, got %s", kind)
	}
}

func TestImageGenerateNoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "sure, here you go"}]}}]}`))
	}))
	defer srv.Close()

	p := NewImageProvider("k", "m")
	p.base = srv.URL

	_, err := p.Generate(context.Background(), &MediaRequest{Prompt: "a dog"})
	if kind := Classify(err); kind != KindMalformed {
		t.Errorf("expected malformed, got %s", kind)
	}
}
