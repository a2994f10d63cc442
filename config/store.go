package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/Keksclan/rawrcache/cache"
)

// OpenStore builds the store selected by f.Store.Driver. The returned closer
// releases every resource the store holds.
func (f *File) OpenStore() (cache.Store, io.Closer, error) {
	switch f.Store.Driver {
	case DriverTiered:
		l1, err := cache.NewMemory(f.Store.Memory.MaxEntries)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open memory tier: %w", err)
		}
		l2, closeL2, err := f.openRemote(f.Store.Tiered.Remote)
		if err != nil {
			_ = l1.Close()
			return nil, nil, err
		}
		return cache.NewTiered(l1, l2, f.Store.Tiered.PromoteTTL.Std()), closers{closeL2, l1}, nil
	case DriverMemory:
		m, err := cache.NewMemory(f.Store.Memory.MaxEntries)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open memory store: %w", err)
		}
		return m, m, nil
	default:
		return f.openRemote(f.Store.Driver)
	}
}

func (f *File) openRemote(driver string) (cache.Store, io.Closer, error) {
	switch driver {
	case DriverRedis:
		r := cache.NewRedis(cache.RedisOptions{
			Addr:     f.Store.Redis.Addr,
			Password: f.Store.Redis.Password,
			DB:       f.Store.Redis.DB,
			Prefix:   f.Store.Redis.Prefix,
		})
		return r, r, nil
	case DriverBolt:
		b, err := cache.OpenBolt(f.Store.Bolt.Path, cache.BoltOptions{Bucket: f.Store.Bolt.Bucket})
		if err != nil {
			return nil, nil, fmt.Errorf("config: open bolt store: %w", err)
		}
		return b, b, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store driver %q", ErrInvalid, driver)
	}
}

type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for _, c := range cs {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
