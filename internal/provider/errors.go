package provider

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorKind categorizes provider failures for retry and user messaging.
type ErrorKind string

const (
	KindTransient   ErrorKind = "transient"
	KindRateLimited ErrorKind = "rate_limit"
	KindBlocked     ErrorKind = "blocked"
	KindAuth        ErrorKind = "auth"
	KindTimeout     ErrorKind = "timeout"
	KindConfig      ErrorKind = "config"
	KindMalformed   ErrorKind = "malformed"
)

// ProviderError represents an error from a provider
type ProviderError struct {
	Kind     ErrorKind `json:"kind"`
	Code     string    `json:"code,omitempty"`
	Message  string    `json:"message"`
	Provider string    `json:"provider,omitempty"`
}

func (e *ProviderError) Error() string {
	return e.Message
}

// NewError builds a ProviderError with an explicit kind.
func NewError(kind ErrorKind, providerID, message string) *ProviderError {
	return &ProviderError{Kind: kind, Provider: providerID, Message: message}
}

// Classify determines the category of a provider failure. Explicitly
// tagged ProviderErrors keep their kind; everything else is classified
// by HTTP status and message patterns.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindTransient
	}

	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind != "" {
		return pe.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 429:
			return KindRateLimited
		case 401, 403:
			return KindAuth
		case 404:
			return KindConfig
		}
	}

	msg := strings.ToLower(err.Error())

	rateLimitPatterns := []string{
		"rate limit", "rate_limit", "too many requests", "429",
		"resource exhausted", "resource_exhausted", "throttle", "slow down",
	}
	for _, p := range rateLimitPatterns {
		if strings.Contains(msg, p) {
			return KindRateLimited
		}
	}

	blockedPatterns := []string{
		"safety", "blocked", "block_reason", "prohibited content",
	}
	for _, p := range blockedPatterns {
		if strings.Contains(msg, p) {
			return KindBlocked
		}
	}

	authPatterns := []string{
		"authentication", "unauthorized", "api key", "401", "403",
		"invalid credentials", "permission denied",
	}
	for _, p := range authPatterns {
		if strings.Contains(msg, p) {
			return KindAuth
		}
	}

	timeoutPatterns := []string{
		"timeout", "timed out", "deadline exceeded", "context canceled",
	}
	for _, p := range timeoutPatterns {
		if strings.Contains(msg, p) {
			return KindTimeout
		}
	}

	configPatterns := []string{
		"model not found", "unknown model", "is not found", "unsupported model",
	}
	for _, p := range configPatterns {
		if strings.Contains(msg, p) {
			return KindConfig
		}
	}

	return KindTransient
}

// Retryable reports whether a failure is worth another attempt. Blocked,
// auth, config, and malformed failures are deterministic and never retried.
func Retryable(kind ErrorKind) bool {
	switch kind {
	case KindTransient, KindRateLimited:
		return true
	default:
		return false
	}
}

// UserMessage maps an error kind to the text shown in the chat thread.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case KindRateLimited:
		return "The model is receiving too many requests right now. Please try again in a moment."
	case KindBlocked:
		return "This request was blocked by the provider's safety filters. Try rephrasing your message."
	case KindAuth:
		return "The server is not authorized with this provider. Check the API key configuration."
	case KindTimeout:
		return "The request took too long and was abandoned. Please try again."
	case KindConfig:
		return "The requested model is not available on this server."
	case KindMalformed:
		return "The model returned an empty or unreadable response. Please try again."
	default:
		return "Something went wrong while generating a response. Please try again."
	}
}
