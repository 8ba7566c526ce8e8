package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"prism/internal/logging"
)

func TestVideoGeneratePollsUntilDone(t *testing.T) {
	logging.Disable()
	defer logging.Enable()

	var polls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "predictLongRunning"):
			w.Write([]byte(`{"name": "operations/op-1"}`))
		case strings.Contains(r.URL.Path, "operations/op-1"):
			if polls.Add(1) < 3 {
				w.Write([]byte(`{"name": "operations/op-1", "done": false}`))
				return
			}
			fmt.Fprintf(w, `{
				"name": "operations/op-1",
				"done": true,
				"response": {"generateVideoResponse": {"generatedSamples": [
					{"video": {"uri": %q}}
				]}}
			}`, srv.URL+"/files/render.mp4")
		case strings.Contains(r.URL.Path, "/files/render.mp4"):
			w.Write([]byte("mp4 bytes"))
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewVideoProvider("k", "veo-test", 5*time.Millisecond)
	p.base = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := p.Generate(ctx, &MediaRequest{Prompt: "a cat surfing"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].Ext != ".mp4" {
		t.Fatalf("unexpected result: %+v", res.Files)
	}
	if string(res.Files[0].Data) != "mp4 bytes" {
		t.Errorf("video bytes not downloaded")
	}
	if polls.Load() < 3 {
		t.Errorf("expected at least 3 polls, got %d", polls.Load())
	}
}

func TestVideoGenerateTimesOut(t *testing.T) {
	logging.Disable()
	defer logging.Enable()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "predictLongRunning") {
			w.Write([]byte(`{"name": "operations/op-slow"}`))
			return
		}
		w.Write([]byte(`{"name": "operations/op-slow", "done": false}`))
	}))
	defer srv.Close()

	p := NewVideoProvider("k", "veo-test", 5*time.Millisecond)
	p.base = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, &MediaRequest{Prompt: "endless render"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if kind := Classify(err); kind != KindTimeout {
		t.Errorf("expected timeout, got %s: %v", kind, err)
	}
}

func TestVideoGenerateAllSamplesFiltered(t *testing.T) {
	logging.Disable()
	defer logging.Enable()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "predictLongRunning") {
			w.Write([]byte(`{"name": "operations/op-2"}`))
			return
		}
		w.Write([]byte(`{
			"name": "operations/op-2",
			"done": true,
			"response": {"generateVideoResponse": {"generatedSamples": [], "raiMediaFilteredCount": 1}}
		}`))
	}))
	defer srv.Close()

	p := NewVideoProvider("k", "veo-test", 5*time.Millisecond)
	p.base = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := p.Generate(ctx, &MediaRequest{Prompt: "bad"})
	if kind := Classify(err); kind != KindBlocked {
		t.Errorf("expected blocked, got %s: %v", kind, err)
	}
}

func TestVideoGeneratePartialDownload(t *testing.T) {
	logging.Disable()
	defer logging.Enable()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "predictLongRunning"):
			w.Write([]byte(`{"name": "operations/op-3"}`))
		case strings.Contains(r.URL.Path, "operations/op-3"):
			fmt.Fprintf(w, `{
				"name": "operations/op-3",
				"done": true,
				"response": {"generateVideoResponse": {"generatedSamples": [
					{"video": {"uri": %q}},
					{"video": {"uri": %q}}
				]}}
			}`, srv.URL+"/files/good.mp4", srv.URL+"/files/gone.mp4")
		case strings.Contains(r.URL.Path, "good.mp4"):
			w.Write([]byte("ok"))
		case strings.Contains(r.URL.Path, "gone.mp4"):
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewVideoProvider("k", "veo-test", 5*time.Millisecond)
	p.base = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := p.Generate(ctx, &MediaRequest{Prompt: "two takes"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// One failed download must not sink the surviving sample.
	if len(res.Files) != 1 {
		t.Errorf("expected 1 surviving file, got %d", len(res.Files))
	}
}
