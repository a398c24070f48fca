package command

import (
	"context"
	"fmt"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResponder struct {
	command string
}

func (m *MockResponder) Respond(_ context.Context, _ port.State, _ *domain.Interaction) (*domain.Response, error) {
	return domain.MessageResponse(m.command), nil
}

func (m *MockResponder) GetCommand() string {
	return m.command
}

func (m *MockResponder) Definition() domain.CommandDefinition {
	return domain.CommandDefinition{Name: m.command, Description: "mock " + m.command}
}

func responders(names ...string) []port.Command {
	commands := make([]port.Command, len(names))
	for i, name := range names {
		commands[i] = &MockResponder{command: name}
	}

	return commands
}

func TestNewRegistry(t *testing.T) {
	cr, err := NewRegistry(responders("new-release", "ask")...)
	require.NoError(t, err)

	assert.Equal(t, 2, cr.Snapshot().Len())
	assert.Equal(t, uint64(1), cr.View().Version())
}

func TestEmptyRegistry(t *testing.T) {
	cr := &Registry{}

	_, ok := cr.View().Lookup("ask")
	assert.False(t, ok)
	assert.Empty(t, cr.ListCommands())
	assert.Zero(t, cr.View().Version())
}

func TestLookupExactMatchOnly(t *testing.T) {
	names := []string{"new-release", "new", "ne", "ask", "asks", "debug", "a"}
	cr, err := NewRegistry(responders(names...)...)
	require.NoError(t, err)

	view := cr.View()
	for _, name := range names {
		cmd, ok := view.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, cmd.GetCommand())
	}

	for _, name := range []string{"", "n", "new-", "new-release-x", "new-releas", "as", "askss", "Debug", "ASK", "b"} {
		_, ok := view.Lookup(name)
		assert.False(t, ok, name)
	}
}

func TestLookupPrefixAndExtensionOfSingleName(t *testing.T) {
	cr, err := NewRegistry(responders("new-release")...)
	require.NoError(t, err)

	_, ok := cr.View().Lookup("new")
	assert.False(t, ok)

	_, ok = cr.View().Lookup("new-release-x")
	assert.False(t, ok)

	cmd, ok := cr.View().Lookup("new-release")
	require.True(t, ok)
	assert.Equal(t, "new-release", cmd.GetCommand())
}

func TestDuplicateNameFails(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{name: "adjacent duplicate", names: []string{"ask", "ask"}},
		{name: "duplicate after others", names: []string{"ask", "debug", "new-release", "debug"}},
		{name: "duplicate prefix entry", names: []string{"new", "new-release", "new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 10 {
				_, err := NewRegistry(responders(tt.names...)...)
				require.ErrorIs(t, err, domain.ErrDuplicateCommand)
			}
		})
	}
}

func TestEmptyNameFails(t *testing.T) {
	_, err := NewRegistry(responders("ask", "")...)
	require.ErrorIs(t, err, domain.ErrEmptyCommandName)
}

func TestRegisterKeepsOldViews(t *testing.T) {
	cr, err := NewRegistry(responders("ask")...)
	require.NoError(t, err)

	before := cr.View()

	require.NoError(t, cr.Register(responders("debug", "new-release")...))
	after := cr.View()

	_, ok := before.Lookup("debug")
	assert.False(t, ok)
	assert.Equal(t, []string{"ask"}, before.ListCommands())
	assert.Equal(t, uint64(1), before.Version())

	_, ok = after.Lookup("debug")
	assert.True(t, ok)
	assert.Equal(t, []string{"ask", "debug", "new-release"}, after.ListCommands())
	assert.Equal(t, uint64(2), after.Version())
}

func TestRegisterFailureKeepsCurrentVersion(t *testing.T) {
	cr, err := NewRegistry(responders("ask")...)
	require.NoError(t, err)

	err = cr.Register(responders("debug", "ask")...)
	require.ErrorIs(t, err, domain.ErrDuplicateCommand)

	assert.Equal(t, uint64(1), cr.View().Version())
	assert.Equal(t, []string{"ask"}, cr.ListCommands())
}

func TestConcurrentReadersDuringRebuild(t *testing.T) {
	cr, err := NewRegistry(responders("ask", "new-release")...)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				view := cr.View()
				_, ok := view.Lookup("new-release")
				assert.True(t, ok)
				assert.GreaterOrEqual(t, len(view.ListCommands()), 2)
			}
		}()
	}

	for i := range 50 {
		require.NoError(t, cr.Register(&MockResponder{command: fmt.Sprintf("cmd-%d", i)}))
	}

	wg.Wait()
	assert.Equal(t, 52, cr.Snapshot().Len())
}

func TestListCommands(t *testing.T) {
	cr, err := NewRegistry(responders("/foo", "/bar")...)
	require.NoError(t, err)

	list := cr.ListCommands()

	assert.Len(t, list, 2)
	assert.Equal(t, []string{"/bar", "/foo"}, list)
}

func TestDefinitions(t *testing.T) {
	cr, err := NewRegistry(responders("debug", "ask")...)
	require.NoError(t, err)

	definitions := cr.Definitions()
	require.Len(t, definitions, 2)
	assert.Equal(t, "ask", definitions[0].Name)
	assert.Equal(t, "debug", definitions[1].Name)
}
