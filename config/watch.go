package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Watch polls path every interval and calls onChange with the new file each
// time its size or modification time changes and it parses cleanly. A file
// that fails to load is logged through zerolog.Ctx(ctx) and skipped, so the
// last good configuration stays in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, interval time.Duration, onChange func(*File)) error {
	log := zerolog.Ctx(ctx)
	if interval <= 0 {
		interval = 5 * time.Second
	}

	last, _ := stat(path)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		cur, err := stat(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config file not readable, keeping current settings")
			continue
		}
		if cur.same(last) {
			continue
		}
		last = cur

		f, err := Load(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("config reload rejected, keeping current settings")
			continue
		}
		log.Info().Str("path", path).Msg("config file changed")
		onChange(f)
	}
}

type fileState struct {
	size    int64
	modTime time.Time
}

func (s fileState) same(o fileState) bool {
	return s.size == o.size && s.modTime.Equal(o.modTime)
}

func stat(path string) (fileState, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{size: fi.Size(), modTime: fi.ModTime()}, nil
}
