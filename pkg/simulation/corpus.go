package simulation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// Turn is one annotated utterance. On disk it is the array
// [speaker, text, intent].
type Turn struct {
	Speaker string
	Text    string
	Intent  string
}

func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{t.Speaker, t.Text, t.Intent})
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode turn: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("turn must have 3 fields, got %d", len(raw))
	}
	t.Speaker, t.Text, t.Intent = raw[0], raw[1], raw[2]
	return nil
}

// Corpus maps a dialogue id to its annotated turns.
type Corpus map[string][]Turn

// LoadCorpus reads a JSON corpus file.
func LoadCorpus(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer f.Close()
	c, err := ReadCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}
	return c, nil
}

// ReadCorpus decodes a JSON corpus.
func ReadCorpus(r io.Reader) (Corpus, error) {
	var c Corpus
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	return c, nil
}

// IDs returns the dialogue ids in sorted order.
func (c Corpus) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// UserIntents returns the intents of the user turns of a dialogue.
func UserIntents(turns []Turn) []string {
	var out []string
	for _, t := range turns {
		if t.Speaker == UserTag {
			out = append(out, t.Intent)
		}
	}
	return out
}
