package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is a transcript line or a summary value of one dialogue.
type Entry struct {
	Dialogue int       `json:"dialogue"`
	Time     time.Time `json:"time"`
	Line     string    `json:"line,omitempty"`
	Key      string    `json:"key,omitempty"`
	Value    any       `json:"value,omitempty"`
}

// Conversation buffers transcript entries until they are flushed.
type Conversation struct {
	mu       sync.Mutex
	dialogue int
	entries  []Entry
	now      func() time.Time
}

// NewConversation creates an empty transcript.
func NewConversation() *Conversation {
	return &Conversation{now: time.Now}
}

// NewDialogue numbers subsequent entries as a new dialogue.
func (c *Conversation) NewDialogue() {
	c.mu.Lock()
	c.dialogue++
	c.mu.Unlock()
}

// Record appends a transcript line.
func (c *Conversation) Record(line string) {
	c.append(Entry{Line: line})
}

// RecordSummary appends a named value, such as the final context.
func (c *Conversation) RecordSummary(key string, value any) {
	c.append(Entry{Key: key, Value: value})
}

func (c *Conversation) append(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.Dialogue = c.dialogue
	e.Time = c.now().UTC()
	c.entries = append(c.entries, e)
}

// Lines returns the transcript lines of the current dialogue.
func (c *Conversation) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.entries {
		if e.Dialogue == c.dialogue && e.Line != "" {
			out = append(out, e.Line)
		}
	}
	return out
}

// Entries returns every buffered entry.
func (c *Conversation) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Flush writes the buffered entries to w as JSON lines and clears them.
func (c *Conversation) Flush(w io.Writer) error {
	c.mu.Lock()
	entries := c.entries
	c.entries = nil
	c.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, e := range entries {
		if err := enc.Encode(e); err != nil {
			c.mu.Lock()
			c.entries = slices.Concat(entries[i:], c.entries)
			c.mu.Unlock()
			return fmt.Errorf("failed to write conversation log: %w", err)
		}
	}
	return nil
}

// Load appends the JSON lines read from r.
func (c *Conversation) Load(r io.Reader) error {
	var loaded []Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("failed to parse conversation log: %w", err)
		}
		loaded = append(loaded, e)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read conversation log: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, loaded...)
	for _, e := range loaded {
		c.dialogue = max(c.dialogue, e.Dialogue)
	}
	return nil
}

// OpenLog opens a size-rotated conversation log file.
func OpenLog(path string, maxSizeMB, maxBackups int) io.WriteCloser {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
}
