package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestClassifyTaggedError(t *testing.T) {
	err := NewError(KindBlocked, "gemini", "nope")
	if kind := Classify(err); kind != KindBlocked {
		t.Errorf("expected blocked, got %s", kind)
	}

	wrapped := fmt.Errorf("stream failed: %w", err)
	if kind := Classify(wrapped); kind != KindBlocked {
		t.Errorf("expected blocked through wrapping, got %s", kind)
	}
}

func TestClassifyGoogleAPIError(t *testing.T) {
	cases := []struct {
		code int
		want ErrorKind
	}{
		{429, KindRateLimited},
		{401, KindAuth},
		{403, KindAuth},
		{404, KindConfig},
		{500, KindTransient},
	}
	for _, tc := range cases {
		err := &googleapi.Error{Code: tc.code, Message: "backend says no"}
		if kind := Classify(err); kind != tc.want {
			t.Errorf("code %d: expected %s, got %s", tc.code, tc.want, kind)
		}
	}
}

func TestClassifyByMessage(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorKind
	}{
		{"429 Too Many Requests", KindRateLimited},
		{"RESOURCE_EXHAUSTED: quota", KindRateLimited},
		{"content blocked by safety settings", KindBlocked},
		{"invalid api key provided", KindAuth},
		{"request timed out", KindTimeout},
		{"model not found: veo-99", KindConfig},
		{"connection reset by peer", KindTransient},
	}
	for _, tc := range cases {
		if kind := Classify(errors.New(tc.msg)); kind != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.msg, tc.want, kind)
		}
	}
}

func TestClassifyDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()
	if kind := Classify(ctx.Err()); kind != KindTimeout {
		t.Errorf("expected timeout, got %s", kind)
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(KindTransient) || !Retryable(KindRateLimited) {
		t.Error("transient and rate_limit should be retryable")
	}
	for _, kind := range []ErrorKind{KindBlocked, KindAuth, KindConfig, KindMalformed, KindTimeout} {
		if Retryable(kind) {
			t.Errorf("%s should not be retryable", kind)
		}
	}
}

func TestUserMessageCoversAllKinds(t *testing.T) {
	kinds := []ErrorKind{
		KindTransient, KindRateLimited, KindBlocked, KindAuth,
		KindTimeout, KindConfig, KindMalformed,
	}
	for _, kind := range kinds {
		if UserMessage(kind) == "" {
			t.Errorf("no user message for %s", kind)
		}
	}
}
