package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/reel/pkg/domain"
)

// Episode is one recorded turn. States are deep copies, independent of the
// live dialogue state.
type Episode struct {
	Previous *domain.State `json:"previous_state"`
	Current  *domain.State `json:"current_state"`
	Acts     []domain.Act  `json:"acts"`
	Input    string        `json:"input_utterance,omitempty"`
	Output   string        `json:"output_utterance,omitempty"`
}

// Episodes groups recorded turns by dialogue.
type Episodes struct {
	mu        sync.Mutex
	path      string
	dialogues [][]Episode
}

// NewEpisodes creates a recorder that saves to path.
func NewEpisodes(path string) *Episodes {
	return &Episodes{path: path}
}

// SetPath changes where Save writes.
func (e *Episodes) SetPath(path string) {
	e.mu.Lock()
	e.path = path
	e.mu.Unlock()
}

// NewDialogue starts a new group of episodes.
func (e *Episodes) NewDialogue() {
	e.mu.Lock()
	e.dialogues = append(e.dialogues, nil)
	e.mu.Unlock()
}

// Record appends a turn to the current dialogue.
func (e *Episodes) Record(prev, cur *domain.State, acts []domain.Act, input, output string) {
	ep := Episode{
		Previous: prev.Clone(),
		Current:  cur.Clone(),
		Acts:     domain.CloneActs(acts),
		Input:    input,
		Output:   output,
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.dialogues) == 0 {
		e.dialogues = append(e.dialogues, nil)
	}
	last := len(e.dialogues) - 1
	e.dialogues[last] = append(e.dialogues[last], ep)
}

// Dialogues returns the recorded episodes.
func (e *Episodes) Dialogues() [][]Episode {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]Episode, len(e.dialogues))
	for i, d := range e.dialogues {
		out[i] = append([]Episode(nil), d...)
	}
	return out
}

// Len returns the number of dialogues.
func (e *Episodes) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.dialogues)
}

// Save writes all dialogues as JSON, replacing the file atomically.
func (e *Episodes) Save() error {
	e.mu.Lock()
	path := e.path
	data, err := json.MarshalIndent(e.dialogues, "", "  ")
	e.mu.Unlock()
	if path == "" {
		return fmt.Errorf("%w: experience log path", domain.ErrMissingConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal episodes: %w", err)
	}
	return writeAtomic(path, data)
}

// Load replaces the recorded dialogues with those in path.
func (e *Episodes) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read episodes %s: %w", path, err)
	}
	var dialogues [][]Episode
	if err := json.Unmarshal(data, &dialogues); err != nil {
		return fmt.Errorf("failed to parse episodes %s: %w", path, err)
	}
	e.mu.Lock()
	e.dialogues = dialogues
	e.mu.Unlock()
	return nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
