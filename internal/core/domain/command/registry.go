package command

import (
	"fmt"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"
	"sync"
	"sync/atomic"

	iradix "github.com/hashicorp/go-immutable-radix/v2"
	"github.com/rs/zerolog/log"
)

// View is an immutable snapshot of the registered commands. It is safe for concurrent use and stays valid after
// the registry is rebuilt, since every rebuild produces a new tree sharing the unchanged parts of this one.
type View struct {
	tree    *iradix.Tree[port.Command]
	version uint64
}

// Lookup returns the command registered under exactly name. Lookups are case-sensitive and never match a prefix or
// an extension of a registered name.
func (v *View) Lookup(name string) (port.Command, bool) {
	if v == nil || v.tree == nil {
		return nil, false
	}

	return v.tree.Get([]byte(name))
}

func (v *View) Version() uint64 {
	if v == nil {
		return 0
	}

	return v.version
}

func (v *View) Len() int {
	if v == nil || v.tree == nil {
		return 0
	}

	return v.tree.Len()
}

func (v *View) ListCommands() []string {
	names := make([]string, 0, v.Len())
	for _, cmd := range v.Commands() {
		names = append(names, cmd.GetCommand())
	}

	return names
}

// Commands returns the registered handlers in lexical order of their names.
func (v *View) Commands() []port.Command {
	commands := make([]port.Command, 0, v.Len())
	if v.Len() == 0 {
		return commands
	}

	v.tree.Root().Walk(func(_ []byte, cmd port.Command) bool {
		commands = append(commands, cmd)
		return false
	})

	return commands
}

// with returns a new view with every handler of commands added.
func (v *View) with(commands ...port.Command) (*View, error) {
	tree := iradix.New[port.Command]()
	if v != nil && v.tree != nil {
		tree = v.tree
	}

	txn := tree.Txn()
	for _, cmd := range commands {
		name := cmd.GetCommand()
		if name == "" {
			return nil, domain.ErrEmptyCommandName
		}

		if _, ok := txn.Get([]byte(name)); ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateCommand, name)
		}

		txn.Insert([]byte(name), cmd)
	}

	return &View{tree: txn.Commit(), version: v.Version() + 1}, nil
}

// Registry maps command names to handlers. Readers take a View without locking, writers build a new View and
// publish it atomically.
type Registry struct {
	current atomic.Pointer[View]
	mutex   sync.Mutex
}

// NewRegistry builds a registry from commands. A duplicate or empty name fails the whole build.
func NewRegistry(commands ...port.Command) (*Registry, error) {
	r := &Registry{}
	if err := r.Register(commands...); err != nil {
		return nil, err
	}

	return r, nil
}

// Register publishes a new version of the registry containing commands. On error the current version stays
// in place.
func (r *Registry) Register(commands ...port.Command) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	next, err := r.current.Load().with(commands...)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		log.Info().Str("handler", cmd.GetCommand()).Uint64("version", next.version).
			Msg("adding command handler to registry")
	}

	r.current.Store(next)
	return nil
}

// Snapshot returns the current view.
func (r *Registry) Snapshot() *View {
	if v := r.current.Load(); v != nil {
		return v
	}

	return &View{}
}

func (r *Registry) View() port.RouterView {
	return r.Snapshot()
}

func (r *Registry) ListCommands() []string {
	return r.Snapshot().ListCommands()
}

// Definitions returns the platform definitions of every registered command.
func (r *Registry) Definitions() []domain.CommandDefinition {
	commands := r.Snapshot().Commands()
	definitions := make([]domain.CommandDefinition, 0, len(commands))
	for _, cmd := range commands {
		definitions = append(definitions, cmd.Definition())
	}

	return definitions
}

var (
	_ port.CommandRouter = (*Registry)(nil)
	_ port.RouterView    = (*View)(nil)
)
