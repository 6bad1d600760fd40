package database

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"
	"unicode/utf8"
)

const (
	// ArticlePartition is the partition marker shared by every delivery record.
	ArticlePartition = "article"

	// MaxStoredURLLength caps the diagnostic copy of the article URL.
	MaxStoredURLLength = 1024

	// sentAtLayout is fixed-width so stored timestamps compare lexically.
	sentAtLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// Record marks one article URL as delivered.
type Record struct {
	PartitionKey string
	RowKey       string
	URL          string
	SentAt       time.Time
}

func NewRecord(url string, sentAt time.Time) Record {
	return Record{
		PartitionKey: ArticlePartition,
		RowKey:       IdentityKey(url),
		URL:          capURL(url),
		SentAt:       sentAt.UTC(),
	}
}

// IdentityKey derives the storage key of an article URL: the hex MD5 of the
// raw URL bytes. It must stay stable across releases, existing records depend
// on it.
func IdentityKey(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Repository is a delivery record backend.
type Repository interface {
	Exists(ctx context.Context, rowKey string) (bool, error)
	Upsert(ctx context.Context, record Record) error
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

func formatSentAt(t time.Time) string {
	return t.UTC().Format(sentAtLayout)
}

func parseSentAt(s string) (time.Time, error) {
	return time.Parse(sentAtLayout, s)
}

func capURL(url string) string {
	if len(url) <= MaxStoredURLLength {
		return url
	}
	cut := MaxStoredURLLength
	for cut > 0 && !utf8.RuneStart(url[cut]) {
		cut--
	}
	return url[:cut]
}
