// Package store keeps a library of named skeletons in the per-user data
// directory. Each skeleton is stored in the persisted text format; a YAML
// catalog records which names are present.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/Faultbox/boneanim/pkg/skeleton"
	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store errors.
var (
	ErrNotFound    = errors.New("skeleton not in library")
	ErrInvalidName = errors.New("invalid library name")
)

const (
	skeletonsObject = "skeletons"
	catalogObject   = "catalog"
	catalogProperty = "index"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type catalog struct {
	Skeletons []string `yaml:"skeletons"`
}

// Library is a named skeleton collection backed by gdata.
type Library struct {
	data *gdata.Manager
	log  *zap.Logger
}

// Open opens (creating if needed) the library of appName.
func Open(appName string, log *zap.Logger) (*Library, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("opening data dir for %s: %w", appName, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Library{data: m, log: log}, nil
}

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q (use letters, digits, '-' and '_')", ErrInvalidName, name)
	}
	return nil
}

// Exists reports whether name is in the catalog.
func (l *Library) Exists(name string) bool {
	names, err := l.List()
	return err == nil && slices.Contains(names, name)
}

// Save stores sk under name, replacing any previous version.
func (l *Library) Save(name string, sk *skeleton.Skeleton) error {
	if err := checkName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := sk.Save(&buf); err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := l.data.SaveObjectProp(skeletonsObject, name, buf.Bytes()); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}

	names, err := l.List()
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		names = append(names, name)
		if err := l.saveCatalog(names); err != nil {
			return err
		}
	}
	l.log.Info("skeleton stored", zap.String("name", name), zap.Int("bytes", buf.Len()))
	return nil
}

// Load reads the skeleton stored under name.
func (l *Library) Load(name string, opts ...skeleton.Option) (*skeleton.Skeleton, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if !l.Exists(name) || !l.data.ObjectPropExists(skeletonsObject, name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	data, err := l.data.LoadObjectProp(skeletonsObject, name)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	sk, err := skeleton.Load(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	l.log.Debug("skeleton loaded", zap.String("name", name))
	return sk, nil
}

// List returns the catalogued names in sorted order.
func (l *Library) List() ([]string, error) {
	if !l.data.ObjectPropExists(catalogObject, catalogProperty) {
		return nil, nil
	}
	data, err := l.data.LoadObjectProp(catalogObject, catalogProperty)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	slices.Sort(c.Skeletons)
	return c.Skeletons, nil
}

// Remove drops name from the catalog. The stored payload is left in place and
// is overwritten by the next Save under the same name.
func (l *Library) Remove(name string) error {
	names, err := l.List()
	if err != nil {
		return err
	}
	i := slices.Index(names, name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return l.saveCatalog(slices.Delete(names, i, i+1))
}

func (l *Library) saveCatalog(names []string) error {
	slices.Sort(names)
	data, err := yaml.Marshal(catalog{Skeletons: names})
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := l.data.SaveObjectProp(catalogObject, catalogProperty, data); err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	return nil
}
