package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-relay/app/feed"
)

const DefaultSendDelay = 1500 * time.Millisecond

// Path names how an article reached (or failed to reach) the channel.
type Path string

const (
	PathPhoto        Path = "photo"
	PathText         Path = "text"
	PathFallbackText Path = "fallback_text"
	PathNone         Path = "none"
)

// Outcome is the result of one delivery attempt.
type Outcome struct {
	Path Path
	Err  error // last error; set only when nothing was delivered
}

func (o Outcome) Delivered() bool {
	return o.Path != PathNone
}

// Engine applies the send policy for single articles.
type Engine struct {
	messenger Messenger
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewEngine(messenger Messenger, delay time.Duration) *Engine {
	if delay < 0 {
		delay = 0
	}
	return &Engine{
		messenger: messenger,
		delay:     delay,
		sleep:     sleepContext,
	}
}

// WithSleep replaces the pause implementation, for tests.
func (e *Engine) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Engine {
	e.sleep = sleep
	return e
}

// Deliver sends article once. A photo rejected for its media is retried as a
// single text message; nothing else is retried.
func (e *Engine) Deliver(ctx context.Context, article feed.Article) Outcome {
	if !article.HasImage() {
		if err := e.messenger.SendText(ctx, RenderText(article), true); err != nil {
			slog.Error("Failed to send article", "url", article.URL, "source", article.Source, "error", err)
			return Outcome{Path: PathNone, Err: err}
		}
		return Outcome{Path: PathText}
	}

	photoErr := e.messenger.SendPhoto(ctx, article.ImageURL, RenderCaption(article))
	if photoErr == nil {
		return Outcome{Path: PathPhoto}
	}

	if !IsMediaInvalid(photoErr) {
		slog.Error("Failed to send article", "url", article.URL, "source", article.Source, "image", article.ImageURL, "error", photoErr)
		return Outcome{Path: PathNone, Err: photoErr}
	}

	slog.Warn("Image rejected, falling back to text", "url", article.URL, "image", article.ImageURL, "error", photoErr)

	if err := e.messenger.SendText(ctx, RenderText(article), true); err != nil {
		slog.Error("Failed to send article as text", "url", article.URL, "source", article.Source, "photo_error", photoErr, "error", err)
		return Outcome{Path: PathNone, Err: err}
	}
	return Outcome{Path: PathFallbackText}
}

// Pause blocks for the configured send delay or until ctx ends.
func (e *Engine) Pause(ctx context.Context) error {
	if e.delay == 0 {
		return ctx.Err()
	}
	return e.sleep(ctx, e.delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
