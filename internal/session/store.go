// Package session keeps named layout trees in boundary form for the daemon
// and the MCP server. Every mutation goes through the api surface, so a
// session tree is handled exactly the way a C caller's tree is.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/tiletree/internal/actionlog"
	"github.com/1broseidon/tiletree/internal/api"
	"github.com/1broseidon/tiletree/internal/boundary"
	"github.com/1broseidon/tiletree/internal/layout"
)

var (
	ErrTreeNotFound = errors.New("tree not found")
	ErrTreeExists   = errors.New("tree already exists")
	ErrLimitReached = errors.New("limit reached")
	ErrInvalidName  = errors.New("invalid tree name")
)

// Limits caps the store. Zero means unlimited.
type Limits struct {
	MaxTrees          int
	MaxWindowsPerTree int
}

// Info summarizes one tree.
type Info struct {
	Name      string    `json:"name" yaml:"name"`
	RootID    uint64    `json:"root_id" yaml:"root_id"`
	AnchorID  uint64    `json:"anchor_id" yaml:"anchor_id"`
	Windows   int       `json:"windows" yaml:"windows"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Snapshot is a tree's summary plus its full structure.
type Snapshot struct {
	Info `yaml:",inline"`
	Root layout.View `json:"root" yaml:"root"`
}

// Service is the set of tree operations shared by the in-process store and
// the daemon client.
type Service interface {
	Create(name string, meta *layout.Metadata) (Info, error)
	Free(name string) error
	AddWindow(name string, parentID uint64, direction layout.Direction, meta *layout.Metadata) (uint64, error)
	RemoveWindow(name string, windowID uint64) error
	UpdateAttrs(name string, windowID uint64, meta *layout.Metadata) error
	Get(name string) (Snapshot, error)
	List() ([]Info, error)
}

type entry struct {
	handle  *boundary.Tree
	created time.Time
}

// Store is a Service backed by boundary records held in memory. It is safe
// for concurrent use.
type Store struct {
	mu       sync.Mutex
	trees    map[string]*entry
	limits   Limits
	rootName string
	logger   *actionlog.Logger
	now      func() time.Time
	lastSeed uint64
}

var _ Service = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

func WithLimits(l Limits) Option {
	return func(s *Store) { s.limits = l }
}

// WithRootName sets the root label used when Create gets no metadata.
func WithRootName(name string) Option {
	return func(s *Store) { s.rootName = name }
}

func WithLogger(l *actionlog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		trees:    make(map[string]*entry),
		rootName: "root",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLimits replaces the limits. Existing trees above a new limit are kept.
func (s *Store) SetLimits(l Limits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = l
}

// SetRootName replaces the default root label.
func (s *Store) SetRootName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rootName = name
}

// nextSeed returns the current time in milliseconds, bumped past the last
// seed so trees created in the same millisecond start from distinct ids.
func (s *Store) nextSeed() uint64 {
	seed := uint64(s.now().UTC().UnixMilli())
	if seed <= s.lastSeed {
		seed = s.lastSeed + 1
	}
	s.lastSeed = seed
	return seed
}

// Create stores a new single-window tree. An empty name gets a random one.
// A nil meta gets the configured root label.
func (s *Store) Create(name string, meta *layout.Metadata) (Info, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = uuid.NewString()
	}
	if strings.ContainsAny(name, " \t\r\n/") {
		return Info{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trees[name]; ok {
		return Info{}, fmt.Errorf("%w: %s", ErrTreeExists, name)
	}
	if s.limits.MaxTrees > 0 && len(s.trees) >= s.limits.MaxTrees {
		err := fmt.Errorf("%w: max_trees is %d", ErrLimitReached, s.limits.MaxTrees)
		s.logger.Failed(actionlog.ActionTreeNew, name, err)
		return Info{}, err
	}
	if meta == nil {
		meta = layout.NewMetadata(s.rootName, 0)
	}

	handle := api.New(boundary.FromLayout(meta), layout.WithSeed(s.nextSeed()))
	e := &entry{handle: handle, created: s.now()}
	s.trees[name] = e

	info, err := s.info(name, e)
	if err != nil {
		return Info{}, err
	}
	s.logger.Log(actionlog.ActionTreeNew, name, info.RootID, map[string]any{"root": meta.Name})
	return info, nil
}

// Free releases a tree's records and forgets it.
func (s *Store) Free(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		s.logger.Failed(actionlog.ActionTreeFree, name, err)
		return err
	}
	released := boundary.Release(e.handle)
	delete(s.trees, name)
	s.logger.Log(actionlog.ActionTreeFree, name, 0, map[string]any{"records": released})
	return nil
}

func (s *Store) AddWindow(name string, parentID uint64, direction layout.Direction, meta *layout.Metadata) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.addWindow(name, parentID, direction, meta)
	if err != nil {
		s.logger.Failed(actionlog.ActionAddWindow, name, err)
		return 0, err
	}
	s.logger.Log(actionlog.ActionAddWindow, name, id, map[string]any{
		"parent":    parentID,
		"direction": direction.String(),
	})
	return id, nil
}

func (s *Store) addWindow(name string, parentID uint64, direction layout.Direction, meta *layout.Metadata) (uint64, error) {
	e, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	if !direction.Valid() {
		return 0, fmt.Errorf("%w: %d", layout.ErrInvalidDirection, direction)
	}
	if s.limits.MaxWindowsPerTree > 0 {
		tree, err := api.Snapshot(e.handle)
		if err != nil {
			return 0, err
		}
		if tree.Windows() >= s.limits.MaxWindowsPerTree {
			return 0, fmt.Errorf("%w: max_windows_per_tree is %d", ErrLimitReached, s.limits.MaxWindowsPerTree)
		}
	}
	return api.AddWindowErr(e.handle, parentID, api.DirectionCode(direction), boundary.FromLayout(meta))
}

func (s *Store) RemoveWindow(name string, windowID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err == nil {
		err = api.RemoveWindowErr(e.handle, windowID)
	}
	if err != nil {
		s.logger.Failed(actionlog.ActionRemoveWindow, name, err)
		return err
	}
	s.logger.Log(actionlog.ActionRemoveWindow, name, windowID, nil)
	return nil
}

func (s *Store) UpdateAttrs(name string, windowID uint64, meta *layout.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err == nil {
		err = api.UpdateAttrsErr(e.handle, windowID, boundary.FromLayout(meta))
	}
	if err != nil {
		s.logger.Failed(actionlog.ActionUpdateAttrs, name, err)
		return err
	}
	s.logger.Log(actionlog.ActionUpdateAttrs, name, windowID, map[string]any{"name": meta.Name})
	return nil
}

// Get returns the tree's current structure.
func (s *Store) Get(name string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		s.logger.Failed(actionlog.ActionGetTree, name, err)
		return Snapshot{}, err
	}
	tree, err := api.Snapshot(e.handle)
	if err != nil {
		s.logger.Failed(actionlog.ActionGetTree, name, err)
		return Snapshot{}, err
	}
	s.logger.Log(actionlog.ActionGetTree, name, 0, nil)
	return Snapshot{
		Info: summarize(name, e, tree),
		Root: tree.Root().View(),
	}, nil
}

// List returns every tree sorted by name.
func (s *Store) List() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.trees))
	for name := range s.trees {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Info, 0, len(names))
	for _, name := range names {
		info, err := s.info(name, s.trees[name])
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Len returns the number of stored trees.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trees)
}

// Close releases every tree and returns the number of records released.
func (s *Store) Close() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := 0
	for name, e := range s.trees {
		released += boundary.Release(e.handle)
		delete(s.trees, name)
	}
	return released
}

func (s *Store) lookup(name string) (*entry, error) {
	e, ok := s.trees[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTreeNotFound, name)
	}
	return e, nil
}

func (s *Store) info(name string, e *entry) (Info, error) {
	tree, err := api.Snapshot(e.handle)
	if err != nil {
		return Info{}, err
	}
	return summarize(name, e, tree), nil
}

func summarize(name string, e *entry, tree *layout.Tree) Info {
	return Info{
		Name:      name,
		RootID:    tree.Root().ID,
		AnchorID:  tree.CurrentAnchorID(),
		Windows:   tree.Windows(),
		CreatedAt: e.created,
	}
}
