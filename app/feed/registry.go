package feed

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

type registryFile struct {
	Sources []Source `yaml:"sources"`
}

// Registry is the ordered list of feeds polled every cycle. Order is
// delivery order.
type Registry struct {
	sources []Source
}

func NewRegistry(sources []Source) (*Registry, error) {
	r := &Registry{}
	seen := make(map[string]bool, len(sources))

	for i, src := range sources {
		if err := validateSource(src); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("duplicate source name: %s", src.Name)
		}
		seen[src.Name] = true

		if !src.IsEnabled() {
			slog.Debug("Feed disabled, skipping", "feed", src.Name)
			continue
		}
		r.sources = append(r.sources, src)
	}

	return r, nil
}

// LoadRegistry reads a YAML registry file. A missing file yields the
// built-in default registry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("Feed registry file not found, using built-in sources", "path", path, "count", len(DefaultSources))
		return NewRegistry(DefaultSources)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("registry %s has no sources", path)
	}

	return NewRegistry(file.Sources)
}

func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for _, src := range r.sources {
		names = append(names, src.Name)
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.sources)
}

func validateSource(src Source) error {
	if src.Name == "" {
		return fmt.Errorf("feed name is required")
	}
	if src.URL == "" {
		return fmt.Errorf("feed URL is required")
	}

	u, err := url.Parse(src.URL)
	if err != nil {
		return fmt.Errorf("invalid feed URL %q: %w", src.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed URL %q must use http or https", src.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("feed URL %q has no host", src.URL)
	}

	return nil
}

// DefaultSources are the Indonesian national news feeds the relay ships with.
var DefaultSources = []Source{
	{Name: "🇮🇩 Antara - Top News", URL: "https://www.antaranews.com/rss/top-news.xml"},
	{Name: "🏛️ Antara - Politik", URL: "https://www.antaranews.com/rss/politik.xml"},
	{Name: "⚖️ Antara - Hukum", URL: "https://www.antaranews.com/rss/hukum.xml"},
	{Name: "📰 Antara - Terkini", URL: "https://www.antaranews.com/rss/terkini.xml"},
	{Name: "💻 Antara - Tekno", URL: "https://www.antaranews.com/rss/tekno.xml"},
	{Name: "🎓 Antara - Humaniora", URL: "https://www.antaranews.com/rss/humaniora.xml"},

	{Name: "🌐 CNN Indonesia - Nasional", URL: "https://www.cnnindonesia.com/nasional/rss"},
	{Name: "💻 CNN Indonesia - Teknologi", URL: "https://www.cnnindonesia.com/teknologi/rss"},

	{Name: "📊 CNBC Indonesia - News", URL: "https://www.cnbcindonesia.com/news/rss"},
	{Name: "📈 CNBC Indonesia - Market", URL: "https://www.cnbcindonesia.com/market/rss/"},
	{Name: "🔬 CNBC Indonesia - Tech", URL: "https://www.cnbcindonesia.com/tech/rss/"},

	{Name: "⏰ Tempo - Nasional", URL: "http://rss.tempo.co/nasional"},
	{Name: "📋 Republika - Nasional", URL: "https://www.republika.co.id/rss/nasional/"},
	{Name: "🔴 Detik - Berita Utama", URL: "https://news.detik.com/berita/rss"},
	{Name: "📱 Suara.com - Tekno", URL: "https://www.suara.com/rss/tekno"},
	{Name: "🚀 DailySocial - Startup & Tech", URL: "https://dailysocial.id/rss"},
	{Name: "💰 Kontan - Keuangan", URL: "https://rss.kontan.co.id/news/keuangan"},
	{Name: "🎓 Okezone - Edukasi", URL: "https://edukasi.okezone.com/rss"},
}
