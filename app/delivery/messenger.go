package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Messenger publishes HTML-formatted messages to the target channel.
type Messenger interface {
	SendText(ctx context.Context, html string, linkPreview bool) error
	SendPhoto(ctx context.Context, imageURL, htmlCaption string) error
}

// ErrorKind buckets send failures for the fallback decision.
type ErrorKind string

const (
	KindMediaInvalid ErrorKind = "media_invalid"
	KindRateLimited  ErrorKind = "rate_limited"
	KindOther        ErrorKind = "other"
)

// SendError is returned by Messenger implementations.
type SendError struct {
	Kind ErrorKind
	Op   string
	Code int
	Err  error
}

func (e *SendError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s failed (%s, code %d): %v", e.Op, e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

var mediaInvalidPatterns = []string{
	"wrong file",
	"bad request",
	"failed to get http url content",
	"wrong type of the web page content",
	"image_process_failed",
}

// ClassifyError derives the kind of a send failure from its message. Errors
// already carrying a kind keep it.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Kind
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "too many requests") {
		return KindRateLimited
	}
	for _, pattern := range mediaInvalidPatterns {
		if strings.Contains(msg, pattern) {
			return KindMediaInvalid
		}
	}
	return KindOther
}

// IsMediaInvalid reports whether err means the image reference was rejected.
func IsMediaInvalid(err error) bool {
	return ClassifyError(err) == KindMediaInvalid
}
