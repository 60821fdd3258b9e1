// Package config loads reel settings from YAML or JSON files, the
// environment and built-in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REEL_"

// Logs toggles one of the agent's recorders.
type Logs struct {
	Save bool   `mapstructure:"save"`
	Load bool   `mapstructure:"load"`
	Path string `mapstructure:"path"`
	// NLP annotates conversation logs with the acts behind each utterance.
	NLP bool `mapstructure:"nlp"`
}

// General holds process-wide toggles.
type General struct {
	ExperienceLogs   Logs `mapstructure:"experience_logs"`
	ConversationLogs Logs `mapstructure:"conversation_logs"`
}

// Dialogue describes the task.
type Dialogue struct {
	Domain       string `mapstructure:"domain"`
	OntologyPath string `mapstructure:"ontology_path"`
	DBPath       string `mapstructure:"db_path"`
	DBType       string `mapstructure:"db_type"`
	NumDialogues int    `mapstructure:"num_dialogues"`
}

// Component enables an optional agent component.
type Component struct {
	Enabled bool `mapstructure:"enabled"`
}

// Policy selects the dialogue policy.
type Policy struct {
	Type string `mapstructure:"type"`
}

// DM configures the dialogue manager.
type DM struct {
	Policy        Policy   `mapstructure:"policy"`
	SlotEntropies bool     `mapstructure:"slot_entropies"`
	ContextSlots  []string `mapstructure:"context_slots"`
}

// Agent is one AGENT_<n> section.
type Agent struct {
	Role     string    `mapstructure:"role"`
	MaxTurns int       `mapstructure:"max_turns"`
	NLU      Component `mapstructure:"NLU"`
	NLG      Component `mapstructure:"NLG"`
	DM       DM        `mapstructure:"DM"`
}

// Simulation configures the simulated user.
type Simulation struct {
	Mode          string `mapstructure:"mode"`
	Agenda        string `mapstructure:"agenda"`
	CorpusPath    string `mapstructure:"corpus_path"`
	CatalogPath   string `mapstructure:"catalog_path"`
	MoviesPath    string `mapstructure:"movies_path"`
	RatingsPath   string `mapstructure:"ratings_path"`
	TemplatesPath string `mapstructure:"templates_path"`
	Seed          uint64 `mapstructure:"seed"`
	MaxTurns      int    `mapstructure:"max_turns"`
	Parallelism   int    `mapstructure:"parallelism"`
	Output        string `mapstructure:"output"`
}

// Sessions configures where HTTP chat sessions live.
type Sessions struct {
	Backend string `mapstructure:"backend"` // memory, file or redis
	Path    string `mapstructure:"path"`

	// Key is a hex AES-256 key. When set, snapshots are encrypted at rest.
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`

	// Redact lists patterns masked in stored utterances and reviews.
	Redact []string `mapstructure:"redact"`
}

// Redis configures the redis backend.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `mapstructure:"addr"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Settings is the whole configuration.
type Settings struct {
	General    General       `mapstructure:"GENERAL"`
	Dialogue   Dialogue      `mapstructure:"DIALOGUE"`
	Agents     map[int]Agent `mapstructure:"-"`
	Simulation Simulation    `mapstructure:"SIMULATION"`
	Sessions   Sessions      `mapstructure:"SESSIONS"`
	Redis      Redis         `mapstructure:"REDIS"`
	Server     Server        `mapstructure:"SERVER"`
	Logging    Logging       `mapstructure:"LOGGING"`
}

// Default returns the settings used for anything a file leaves out.
func Default() Settings {
	return Settings{
		General: General{
			ConversationLogs: Logs{Path: filepath.Join("logs", "conversations.jsonl")},
			ExperienceLogs:   Logs{Path: filepath.Join("logs", "episodes.json")},
		},
		Dialogue: Dialogue{
			Domain:       "Movie",
			OntologyPath: filepath.Join("data", "ontology.json"),
			DBPath:       filepath.Join("data", "movies.json"),
			NumDialogues: 1,
		},
		Agents: map[int]Agent{0: DefaultAgent()},
		Simulation: Simulation{
			Mode:        "ms",
			Agenda:      "ours",
			CorpusPath:  filepath.Join("data", "corpus.json"),
			CatalogPath: filepath.Join("data", "movies_metadata.csv"),
			MaxTurns:    50,
			Parallelism: 4,
		},
		Sessions: Sessions{Backend: "memory", Path: filepath.Join(".reel", "sessions")},
		Redis:    Redis{Addr: "localhost:6379", Prefix: "reel:session:"},
		Server:   Server{Addr: ":8080"},
		Logging:  Logging{Level: "info", Format: "text"},
	}
}

// DefaultAgent is the system agent used when no AGENT_0 section exists.
func DefaultAgent() Agent {
	return Agent{
		Role:     "system",
		MaxTurns: 100,
		NLU:      Component{Enabled: true},
		NLG:      Component{Enabled: true},
		DM:       DM{Policy: Policy{Type: "handcrafted"}, ContextSlots: []string{"name"}},
	}
}

// Agent returns the configuration of agent id, or DefaultAgent.
func (s *Settings) Agent(id int) Agent {
	if a, ok := s.Agents[id]; ok {
		return a
	}
	return DefaultAgent()
}

// Load reads path (YAML, or JSON when the extension is .json), merges it
// over Default and applies REEL_* environment overrides, including those
// from a .env file next to the working directory.
func Load(path string) (*Settings, error) {
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	s, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	s.ApplyEnv(os.LookupEnv)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadOrDefault loads path, or returns the defaults with environment
// overrides when path is empty.
func LoadOrDefault(path string) (*Settings, error) {
	if path != "" {
		return Load(path)
	}
	s := Default()
	_ = godotenv.Load()
	s.ApplyEnv(os.LookupEnv)
	return &s, s.Validate()
}

func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("%w: settings file %q", domain.ErrUnsupportedSource, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return raw, nil
}

func decode(raw map[string]any) (*Settings, error) {
	var user Settings
	if err := decodeInto(raw, &user); err != nil {
		return nil, err
	}

	user.Agents = map[int]Agent{}
	for key, section := range raw {
		idx, ok := strings.CutPrefix(key, "AGENT_")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(idx)
		if err != nil {
			return nil, fmt.Errorf("invalid agent section %q", key)
		}
		agent := DefaultAgent()
		if err := decodeInto(section, &agent); err != nil {
			return nil, fmt.Errorf("section %s: %w", key, err)
		}
		user.Agents[id] = agent
	}

	agents := user.Agents
	user.Agents = nil

	s := Default()
	if err := mergo.Merge(&s, user, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}
	if len(agents) > 0 {
		s.Agents = agents
	}
	return &s, nil
}

func decodeInto(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// ApplyEnv overrides settings from REEL_* variables.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("ONTOLOGY", &s.Dialogue.OntologyPath)
	str("DATABASE", &s.Dialogue.DBPath)
	str("CORPUS", &s.Simulation.CorpusPath)
	str("CATALOG", &s.Simulation.CatalogPath)
	str("TEMPLATES", &s.Simulation.TemplatesPath)
	str("MODE", &s.Simulation.Mode)
	str("SESSIONS", &s.Sessions.Backend)
	str("SESSION_KEY", &s.Sessions.Key)
	str("REDIS_ADDR", &s.Redis.Addr)
	str("REDIS_PASSWORD", &s.Redis.Password)
	str("LISTEN_ADDR", &s.Server.Addr)
	str("LOG_LEVEL", &s.Logging.Level)
	str("LOG_FORMAT", &s.Logging.Format)
	str("LOG_FILE", &s.Logging.File)
}

// Validate reports the first missing required key.
func (s *Settings) Validate() error {
	switch {
	case s.Dialogue.Domain == "":
		return &domain.ConfigError{Section: "DIALOGUE", Key: "domain"}
	case s.Dialogue.OntologyPath == "":
		return &domain.ConfigError{Section: "DIALOGUE", Key: "ontology_path"}
	case s.Dialogue.DBPath == "":
		return &domain.ConfigError{Section: "DIALOGUE", Key: "db_path"}
	}

	ids := make([]int, 0, len(s.Agents))
	for id := range s.Agents {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if s.Agents[id].Role == "" {
			return &domain.ConfigError{Section: fmt.Sprintf("AGENT_%d", id), Key: "role"}
		}
	}

	switch s.Sessions.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("%w: sessions backend %q", domain.ErrUnsupportedSource, s.Sessions.Backend)
	}
	return nil
}

// DatabaseSource returns the database path to hand to the dialogue manager,
// honouring an explicit db_type.
func (d Dialogue) DatabaseSource() (string, error) {
	switch strings.ToLower(d.DBType) {
	case "":
		return d.DBPath, nil
	case "sqlite":
		if filepath.Ext(d.DBPath) != ".db" {
			return "", fmt.Errorf("%w: sqlite database must end in .db: %q", domain.ErrUnsupportedSource, d.DBPath)
		}
		return d.DBPath, nil
	case "json":
		if filepath.Ext(d.DBPath) != ".json" {
			return "", fmt.Errorf("%w: json database must end in .json: %q", domain.ErrUnsupportedSource, d.DBPath)
		}
		return d.DBPath, nil
	default:
		return "", fmt.Errorf("%w: db_type %q", domain.ErrUnsupportedSource, d.DBType)
	}
}
