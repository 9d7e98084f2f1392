// Package profile persists a sink's identity and connection preferences as YAML.
//
// Keeping the sink id across restarts lets a restarted watcher replace its
// old registration at each source instead of piling up a second subscriber.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidProfile = errors.New("profile: invalid profile")
	ErrIsDirectory    = errors.New("profile: path is a directory")
	ErrRead           = errors.New("profile: failed to read")
	ErrWrite          = errors.New("profile: failed to write")
)

// Profile is the persisted state of a sink.
type Profile struct {
	ID          uuid.UUID `yaml:"id"`
	Host        string    `yaml:"host"`
	Port        int       `yaml:"port"`
	Autoconnect bool      `yaml:"autoconnect"`
	Sources     []string  `yaml:"sources,omitempty"`
}

// Default returns a profile with a fresh id pointing at localhost:1099.
func Default() Profile {
	return Profile{ID: uuid.New(), Host: "localhost", Port: 1099}
}

func (p Profile) Validate() error {
	switch {
	case p.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", ErrInvalidProfile)
	case p.Port < 1 || p.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidProfile, p.Port)
	}
	return nil
}

// AddSource remembers name. It reports whether the list changed.
func (p *Profile) AddSource(name string) bool {
	if name == "" || slices.Contains(p.Sources, name) {
		return false
	}
	p.Sources = append(p.Sources, name)
	return true
}

// RemoveSource forgets name. It reports whether the list changed.
func (p *Profile) RemoveSource(name string) bool {
	i := slices.Index(p.Sources, name)
	if i < 0 {
		return false
	}
	p.Sources = slices.Delete(p.Sources, i, i+1)
	return true
}

// Load reads the profile at path. Missing fields keep their defaults,
// except the id which must be present.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Join(ErrRead, err)
	}

	p := Default()
	p.ID = uuid.Nil
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.Join(ErrInvalidProfile, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadOrCreate loads the profile at path, writing a default one first if
// the file does not exist. created reports whether it was written.
func LoadOrCreate(path string) (p Profile, created bool, err error) {
	p, err = Load(path)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return p, false, err
	}
	p = Default()
	if err := Save(path, p); err != nil {
		return Profile{}, false, err
	}
	return p, true, nil
}

// Save writes p to path through a temporary file in the same directory.
func Save(path string, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return ErrIsDirectory
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Join(ErrWrite, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*")
	if err != nil {
		return errors.Join(ErrWrite, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Join(ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(ErrWrite, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Join(ErrWrite, err)
	}
	return nil
}
