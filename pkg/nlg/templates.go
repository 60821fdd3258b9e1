package nlg

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ports"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var builtin embed.FS

// Set maps a user intent to its response templates. Templates reference
// arguments as {name}.
type Set map[string][]string

// Templates renders simulated-user intents. It is safe for concurrent use;
// Swap replaces the set atomically.
type Templates struct {
	mu  sync.RWMutex
	set Set
	rnd *rand.Rand
}

var _ ports.Renderer = (*Templates)(nil)

// TemplatesOption configures Templates.
type TemplatesOption func(*Templates)

// WithTemplateRand sets the source used to pick a template.
func WithTemplateRand(r *rand.Rand) TemplatesOption {
	return func(t *Templates) {
		t.rnd = r
	}
}

// NewTemplates wraps a template set.
func NewTemplates(set Set, opts ...TemplatesOption) *Templates {
	t := &Templates{
		set: cloneSet(set),
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Builtin returns one of the embedded sets: "ms", "mb" or "ac".
func Builtin(name string, opts ...TemplatesOption) (*Templates, error) {
	data, err := builtin.ReadFile("templates/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: no built-in templates %q", domain.ErrUnsupportedSource, name)
	}
	set, err := decodeSet(data, ".yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in templates %q: %w", name, err)
	}
	return NewTemplates(set, opts...), nil
}

// LoadTemplates reads a template set from a YAML or JSON file.
func LoadTemplates(path string, opts ...TemplatesOption) (*Templates, error) {
	set, err := ReadSet(path)
	if err != nil {
		return nil, err
	}
	return NewTemplates(set, opts...), nil
}

// ReadSet reads and validates a template file.
func ReadSet(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates %s: %w", path, err)
	}
	set, err := decodeSet(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates %s: %w", path, err)
	}
	return set, nil
}

func decodeSet(data []byte, ext string) (Set, error) {
	var set Set
	var err error
	switch ext {
	case ".json":
		err = json.Unmarshal(data, &set)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &set)
	default:
		return nil, fmt.Errorf("%w: template extension %q", domain.ErrUnsupportedSource, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, errors.New("no intents defined")
	}
	for intent, pool := range set {
		if len(pool) == 0 {
			return nil, fmt.Errorf("intent %q has no templates", intent)
		}
	}
	return set, nil
}

// Render substitutes args into a random template of intent.
func (t *Templates) Render(intent string, args map[string]string) (string, error) {
	t.mu.Lock()
	pool := t.set[intent]
	if len(pool) == 0 {
		t.mu.Unlock()
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownIntent, intent)
	}
	text := pool[t.rnd.IntN(len(pool))]
	t.mu.Unlock()

	for k, v := range args {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text, nil
}

// Has reports whether intent has templates.
func (t *Templates) Has(intent string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.set[intent]) > 0
}

// Pool returns the templates of intent.
func (t *Templates) Pool(intent string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.set[intent])
}

// Intents returns the known intents in sorted order.
func (t *Templates) Intents() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.set))
	for k := range t.set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Swap replaces the template set.
func (t *Templates) Swap(set Set) {
	c := cloneSet(set)
	t.mu.Lock()
	t.set = c
	t.mu.Unlock()
}

func cloneSet(set Set) Set {
	out := make(Set, len(set))
	for k, v := range set {
		out[k] = slices.Clone(v)
	}
	return out
}
