package meme

import (
	"context"
	_ "embed"
	"encoding/json"
	"math/rand"
	"os"
	"sync"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/metrics"
	"crypto-advisor/src/models"
)

//go:embed default_memes.json
var defaultMemesJSON []byte

// -----------------------------------------------------------------------------
// MemeSource returns a random meme from a pool loaded from a JSON file. A
// missing or broken file falls back to the embedded pool.
// -----------------------------------------------------------------------------

type MemeSource struct {
	Path   string
	Logger *logger.Logger

	mu    sync.RWMutex
	memes []models.MMeme
	pick  func(n int) int
}

// -----------------------------------------------------------------------------

func NewMemeSource(path string, log *logger.Logger) *MemeSource {
	s := &MemeSource{Path: path, Logger: log, pick: rand.Intn}
	if err := s.Load(); err != nil {
		s.Logger.Warning("meme pool unavailable, using defaults: %v", err)
	}
	return s
}

// -----------------------------------------------------------------------------

// Load replaces the pool from Path. On failure the embedded defaults are
// installed and the load error is returned.
func (s *MemeSource) Load() error {
	memes, err := readPool(s.Path)
	if err != nil {
		memes = DefaultMemes()
		metrics.ProviderFallbacks.WithLabelValues(models.SectionMeme, "load_error").Inc()
	} else {
		s.Logger.Info("loaded %d memes from %s", len(memes), s.Path)
	}

	s.mu.Lock()
	s.memes = memes
	s.mu.Unlock()
	return err
}

func readPool(path string) ([]models.MMeme, error) {
	if path == "" {
		return nil, helpers.NewConfigurationError("memes path not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helpers.NewDataSourceError("read meme pool", err)
	}

	var raw []models.MMeme
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, helpers.NewDataSourceError("decode meme pool", err)
	}

	memes := raw[:0]
	for _, m := range raw {
		if m.ID != "" && m.ImageURL != "" {
			memes = append(memes, m)
		}
	}
	if len(memes) == 0 {
		return nil, helpers.NewDataSourceError("meme pool is empty", nil)
	}
	return memes, nil
}

// -----------------------------------------------------------------------------

// DefaultMemes decodes the embedded pool.
func DefaultMemes() []models.MMeme {
	var memes []models.MMeme
	if err := json.Unmarshal(defaultMemesJSON, &memes); err != nil {
		panic("meme: embedded default pool is invalid: " + err.Error())
	}
	return memes
}

// -----------------------------------------------------------------------------

// GetMeme returns a uniformly random meme. The pool is reloaded first if it
// is somehow empty.
func (s *MemeSource) GetMeme(_ context.Context) models.MMeme {
	if s.Count() == 0 {
		if err := s.Load(); err != nil {
			s.Logger.Warning("meme pool reload failed, using defaults: %v", err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memes[s.pick(len(s.memes))]
}

// -----------------------------------------------------------------------------

func (s *MemeSource) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memes)
}
