package authz

import (
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode represents an enforcement mode.
type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeShadow   Mode = "shadow"
	ModeEnforce  Mode = "enforce"
)

// Flags is the rollout state: a default mode plus per-object overrides, so
// freight.lanes can be enforced while freight.loads still runs in shadow.
type Flags struct {
	Mode    Mode            `yaml:"mode"`
	Objects map[string]Mode `yaml:"objects"`
}

// ModeFor resolves the mode for an object, falling back to the default.
func (f Flags) ModeFor(object string) Mode {
	if m, ok := f.Objects[strings.ToLower(strings.TrimSpace(object))]; ok {
		return sanitizeMode(m)
	}
	return sanitizeMode(f.Mode)
}

func (f Flags) normalized() Flags {
	out := Flags{Mode: sanitizeMode(f.Mode)}
	if len(f.Objects) == 0 {
		return out
	}
	out.Objects = make(map[string]Mode, len(f.Objects))
	for object, mode := range f.Objects {
		key := strings.ToLower(strings.TrimSpace(object))
		if key == "" {
			continue
		}
		out.Objects[key] = sanitizeMode(mode)
	}
	return out
}

// FlagProvider supplies the current rollout flags.
type FlagProvider interface {
	Flags() Flags
}

type staticFlags Flags

func (s staticFlags) Flags() Flags { return Flags(s).normalized() }

// StaticFlags returns a provider that always reports f.
func StaticFlags(f Flags) FlagProvider {
	return staticFlags(f)
}

// FileFlagProvider reads flags from a YAML file and rereads it only when its
// size or modification time changes. A missing file keeps the last flags read.
type FileFlagProvider struct {
	path     string
	fallback Flags

	mu      sync.Mutex
	current *Flags
	modTime time.Time
	size    int64
}

func NewFileFlagProvider(path string, fallback Flags) *FileFlagProvider {
	return &FileFlagProvider{
		path:     path,
		fallback: fallback.normalized(),
	}
}

func (p *FileFlagProvider) Flags() Flags {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.path)
	if err != nil {
		if p.current == nil {
			return p.fallback
		}
		return *p.current
	}
	if p.current != nil && info.ModTime().Equal(p.modTime) && info.Size() == p.size {
		return *p.current
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if p.current == nil {
			return p.fallback
		}
		return *p.current
	}
	var f Flags
	if err := yaml.Unmarshal(data, &f); err != nil {
		return p.fallback
	}
	f = f.normalized()
	p.current, p.modTime, p.size = &f, info.ModTime(), info.Size()
	return f
}

func sanitizeMode(mode Mode) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case ModeDisabled:
		return ModeDisabled
	case ModeEnforce:
		return ModeEnforce
	default:
		return ModeShadow
	}
}
