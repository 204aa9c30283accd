package parish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Content file names inside the content directory.
const (
	SettingsFile   = "settings.json"
	MassTimesFile  = "mass-times.json"
	NewsFile       = "news.json"
	SacramentsFile = "sacraments.json"
	ChurchesFile   = "churches.json"
)

// ErrNotFound is returned when a requested church does not exist.
var ErrNotFound = errors.New("not found")

// Source reads the flat-file JSON content. Every call goes to disk;
// caching is the caller's job.
type Source struct {
	dir string
}

// NewSource returns a Source over dir, which must exist.
func NewSource(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content directory: %s is not a directory", dir)
	}
	return &Source{dir: dir}, nil
}

// Dir returns the content directory.
func (s *Source) Dir() string { return s.dir }

// Settings reads settings.json. The file is required.
func (s *Source) Settings(ctx context.Context) (Settings, error) {
	var v Settings
	err := s.read(ctx, SettingsFile, &v, false)
	return v, err
}

// MassTimes reads mass-times.json; a missing file is an empty schedule.
func (s *Source) MassTimes(ctx context.Context) ([]MassTime, error) {
	var v []MassTime
	err := s.read(ctx, MassTimesFile, &v, true)
	return v, err
}

// News reads news.json, newest first.
func (s *Source) News(ctx context.Context) ([]NewsItem, error) {
	var v []NewsItem
	if err := s.read(ctx, NewsFile, &v, true); err != nil {
		return nil, err
	}
	sort.SliceStable(v, func(i, j int) bool {
		return v[i].Published.After(v[j].Published)
	})
	return v, nil
}

// Sacraments reads sacraments.json.
func (s *Source) Sacraments(ctx context.Context) ([]Sacrament, error) {
	var v []Sacrament
	err := s.read(ctx, SacramentsFile, &v, true)
	return v, err
}

// Churches reads churches.json.
func (s *Source) Churches(ctx context.Context) ([]Church, error) {
	var v []Church
	err := s.read(ctx, ChurchesFile, &v, true)
	return v, err
}

// Church returns the church with the given id.
func (s *Source) Church(ctx context.Context, id string) (Church, error) {
	churches, err := s.Churches(ctx)
	if err != nil {
		return Church{}, err
	}
	for _, c := range churches {
		if c.ID == id {
			return c, nil
		}
	}
	return Church{}, fmt.Errorf("church %q: %w", id, ErrNotFound)
}

// Content reads every home page file concurrently.
func (s *Source) Content(ctx context.Context) (Content, error) {
	var c Content
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		c.Settings, err = s.Settings(ctx)
		return err
	})
	g.Go(func() (err error) {
		c.MassTimes, err = s.MassTimes(ctx)
		return err
	})
	g.Go(func() (err error) {
		c.News, err = s.News(ctx)
		return err
	})
	g.Go(func() (err error) {
		c.Sacraments, err = s.Sacraments(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Content{}, err
	}
	return c, nil
}

func (s *Source) read(ctx context.Context, name string, v any, optional bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
