package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"support-bot/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store owns the persisted document. All writes go through Update, which runs
// the mutation and the save under one lock so concurrent handlers cannot
// overwrite each other's changes.
type Store struct {
	path   string
	logger *zap.Logger

	mu    sync.Mutex
	doc   *model.Document
	saved []byte

	settings atomic.Pointer[model.Config]
}

// Open loads the document at path. A missing, empty or corrupt file yields an
// empty document; the error is logged, never returned.
func Open(path string, settings *model.Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, logger: logger}
	if settings == nil {
		settings = &model.Config{}
	}
	s.settings.Store(settings)

	doc, raw := s.load()
	s.doc = doc
	s.saved = raw
	return s
}

func (s *Store) load() (*model.Document, []byte) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Could not read data file, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return model.NewDocument(), nil
	}
	if len(raw) == 0 {
		return model.NewDocument(), nil
	}
	doc := &model.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		s.logger.Warn("Data file is corrupt, starting empty", zap.String("path", s.path), zap.Error(err))
		return model.NewDocument(), nil
	}
	doc.Normalize()
	return doc, raw
}

// Settings returns the process configuration the store merges guild config from.
func (s *Store) Settings() *model.Config {
	return s.settings.Load()
}

// SetSettings swaps the process configuration, e.g. after a config file reload.
func (s *Store) SetSettings(cfg *model.Config) {
	if cfg != nil {
		s.settings.Store(cfg)
	}
}

// View runs fn with the current document. fn must not keep references to it
// after returning and must not call back into the store.
func (s *Store) View(fn func(doc *model.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Update runs fn and saves the result. If fn or the save fails the document
// is restored to its last saved state and the error is returned.
func (s *Store) Update(fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.doc); err != nil {
		s.rollback()
		return err
	}
	if err := s.save(); err != nil {
		s.rollback()
		return err
	}
	return nil
}

func (s *Store) rollback() {
	if len(s.saved) == 0 {
		s.doc = model.NewDocument()
		return
	}
	doc := &model.Document{}
	if err := json.Unmarshal(s.saved, doc); err != nil {
		s.logger.Error("Could not restore document after failed update", zap.Error(err))
		return
	}
	doc.Normalize()
	s.doc = doc
}

// save writes the whole document to a temp file and renames it into place.
// The caller holds s.mu.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tickets-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	s.saved = raw
	return nil
}

// ResolveConfig merges the guild config against doc. It does not lock and is
// meant for use inside View or Update.
func (s *Store) ResolveConfig(doc *model.Document, guildID string) model.GuildConfig {
	settings := s.settings.Load()
	cfg := settings.Defaults.Clone()
	if override, ok := settings.Guilds[guildID]; ok {
		cfg = cfg.Apply(&override)
	}
	if meta := doc.Guilds[guildID]; meta != nil && meta.Config != nil {
		cfg = cfg.Apply(meta.Config)
	}
	return cfg
}

// GuildConfig returns the merged config of a guild: defaults, then file
// overrides, then whatever was stored through commands.
func (s *Store) GuildConfig(guildID string) model.GuildConfig {
	var cfg model.GuildConfig
	s.View(func(doc *model.Document) {
		cfg = s.ResolveConfig(doc, guildID)
	})
	return cfg
}

// PatchGuildConfig merges patch into the stored override of a guild.
func (s *Store) PatchGuildConfig(guildID string, patch model.GuildConfigPatch) error {
	return s.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		meta := doc.Guilds[guildID]
		merged := meta.Config.Merge(patch)
		meta.Config = &merged
		return nil
	})
}

// PrimaryGuildID picks the guild that receives DM tickets: the stored pointer,
// then the configured default, then the first of known. Empty when none apply.
func (s *Store) PrimaryGuildID(known []string) string {
	var stored string
	s.View(func(doc *model.Document) {
		stored = doc.PrimaryGuildID
	})
	if stored != "" {
		return stored
	}
	if id := s.settings.Load().PrimaryGuildID; id != "" {
		return id
	}
	if len(known) > 0 {
		return known[0]
	}
	return ""
}

// Ticket returns a copy of the ticket keyed by user in a guild.
func (s *Store) Ticket(guildID, userID string) (model.Ticket, bool) {
	var (
		out model.Ticket
		ok  bool
	)
	s.View(func(doc *model.Document) {
		if t := doc.Tickets[guildID][userID]; t != nil {
			out, ok = t.Clone(), true
		}
	})
	return out, ok
}

// TicketByThread returns a copy of the ticket whose staff thread is threadID.
func (s *Store) TicketByThread(guildID, threadID string) (model.Ticket, bool) {
	var (
		out model.Ticket
		ok  bool
	)
	s.View(func(doc *model.Document) {
		if t := doc.FindTicketByThread(guildID, threadID); t != nil {
			out, ok = t.Clone(), true
		}
	})
	return out, ok
}

// TicketByID returns a copy of the ticket and the guild it lives in. An empty
// guildID searches every guild.
func (s *Store) TicketByID(guildID, ticketID string) (model.Ticket, string, bool) {
	var (
		out model.Ticket
		gid string
		ok  bool
	)
	s.View(func(doc *model.Document) {
		if t, g := doc.FindTicketByID(guildID, ticketID); t != nil {
			out, gid, ok = t.Clone(), g, true
		}
	})
	return out, gid, ok
}
