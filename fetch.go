package kanjidrill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/esimov/kanjidrill/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultSource is the base URL of the KanjiVG illustration files.
const DefaultSource = "https://raw.githubusercontent.com/KanjiVG/kanjivg/master/kanji"

// DefaultTimeout bounds a single illustration download.
const DefaultTimeout = 10 * time.Second

// HTTPProvider downloads KanjiVG illustrations from a remote source.
// Each character is requested at most once per provider: successes and
// failures are both memoized, concurrent requests for the same character
// share a single download. Downloads interrupted by a cancelled context
// are not memoized. Fetched files are also written to CacheDir
// when it is set, and read back from there before any download.
type HTTPProvider struct {
	BaseURL  string
	CacheDir string
	Client   *http.Client
	Logger   logrus.FieldLogger

	group singleflight.Group

	mu   sync.RWMutex
	memo map[Character]memoEntry
}

type memoEntry struct {
	ill *Illustration
	err error
}

var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider returns a provider downloading from baseURL.
// An empty baseURL selects DefaultSource.
func NewHTTPProvider(baseURL, cacheDir string, timeout time.Duration, logger logrus.FieldLogger) (*HTTPProvider, error) {
	if baseURL == "" {
		baseURL = DefaultSource
	}
	if !utils.IsValidUrl(baseURL) {
		return nil, fmt.Errorf("invalid illustration source: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProvider{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		CacheDir: cacheDir,
		Client:   &http.Client{Timeout: timeout},
		Logger:   loggerOrDiscard(logger),
		memo:     make(map[Character]memoEntry),
	}, nil
}

// URL returns the download location of the illustration of c.
func (p *HTTPProvider) URL(c Character) string {
	return p.BaseURL + "/" + FileName(c)
}

// Illustration implements Provider.
func (p *HTTPProvider) Illustration(ctx context.Context, c Character) (*Illustration, error) {
	p.mu.RLock()
	e, ok := p.memo[c]
	p.mu.RUnlock()
	if ok {
		return e.ill, e.err
	}

	for {
		v, err, _ := p.group.Do(FileName(c), func() (interface{}, error) {
			return p.fetch(ctx, c)
		})
		if err == nil {
			ill := v.(*Illustration)
			p.remember(c, memoEntry{ill: ill})
			return ill, nil
		}
		// A cancelled download says nothing about the character. When it was
		// started by another caller whose context is gone, download again.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() == nil {
				continue
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrIllustrationNotFound, c, err)
		}
		p.remember(c, memoEntry{err: err})
		return nil, err
	}
}

// StrokeCount implements Provider.
func (p *HTTPProvider) StrokeCount(ctx context.Context, c Character) (int, error) {
	return strokeCount(ctx, p, c)
}

func (p *HTTPProvider) remember(c Character, e memoEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.memo == nil {
		p.memo = make(map[Character]memoEntry)
	}
	if _, ok := p.memo[c]; !ok {
		p.memo[c] = e
	}
}

func (p *HTTPProvider) fetch(ctx context.Context, c Character) (*Illustration, error) {
	logger := loggerOrDiscard(p.Logger).WithField("char", c.String())

	if p.CacheDir != "" {
		ill, err := readIllustration(filepath.Join(p.CacheDir, FileName(c)), c)
		if err == nil {
			logger.Debug("illustration read from cache")
			return ill, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			logger.WithError(err).Warn("ignoring unreadable cached illustration")
		}
	}

	uri := p.URL(c)
	data, err := utils.Download(ctx, p.Client, uri)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			logger.WithError(cerr).Debug("illustration download interrupted")
			return nil, fmt.Errorf("download of %s interrupted: %w", c, cerr)
		}
		logger.WithError(err).Debug("illustration download failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrIllustrationNotFound, c, err)
	}
	if !utils.IsSVG(data) {
		logger.WithField("type", utils.DetectContentType(data)).Debug("downloaded file is not an svg")
		return nil, fmt.Errorf("%w: %s: not an svg document", ErrIllustrationNotFound, c)
	}
	ill, err := ParseKanjiVG(c, bytes.NewReader(data))
	if err != nil {
		logger.WithError(err).Debug("illustration parse failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrIllustrationNotFound, c, err)
	}
	logger.WithField("strokes", ill.StrokeCount()).Debug("illustration downloaded")

	if p.CacheDir != "" {
		if err := writeCacheFile(p.CacheDir, FileName(c), data); err != nil {
			logger.WithError(err).Warn("unable to cache illustration")
		}
	}
	return ill, nil
}

// DirProvider reads illustrations from a local copy of the KanjiVG "kanji" directory.
type DirProvider struct {
	Dir string
}

var _ Provider = DirProvider{}

// Illustration implements Provider.
func (p DirProvider) Illustration(ctx context.Context, c Character) (*Illustration, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIllustrationNotFound, c, err)
	}
	ill, err := readIllustration(filepath.Join(p.Dir, FileName(c)), c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIllustrationNotFound, c, err)
	}
	return ill, nil
}

// StrokeCount implements Provider.
func (p DirProvider) StrokeCount(ctx context.Context, c Character) (int, error) {
	return strokeCount(ctx, p, c)
}

func readIllustration(path string, c Character) (*Illustration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseKanjiVG(c, f)
}

// writeCacheFile writes data through a temporary file so readers never see a partial file.
func writeCacheFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
