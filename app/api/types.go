package api

import (
	"context"
	"net/http"

	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/pipeline"
	"github.com/lysyi3m/rss-relay/app/tasks"
)

// StoreStatus is the part of the dedup ledger the API reports on.
type StoreStatus interface {
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	registry  *feed.Registry
	store     StoreStatus
	stats     *pipeline.Stats
	scheduler tasks.TaskSchedulerInterface
	metrics   http.Handler
	info      Info
}

// Info describes the running relay on the index endpoint.
type Info struct {
	Version     string
	Channel     string
	Trigger     string
	StoreDriver string
}
