package command

import (
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStats struct {
	mock.Mock
}

func (m *MockStats) InFlightFollowUps() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockStats) RouterView() port.RouterView {
	args := m.Called()
	view, _ := args.Get(0).(port.RouterView)
	return view
}

func TestDebug_Respond_ReportsRuntimeInfo(t *testing.T) {
	cr, err := NewRegistry(responders("ask", "debug")...)
	require.NoError(t, err)

	stats := new(MockStats)
	stats.On("RouterView").Return(cr.View())
	stats.On("InFlightFollowUps").Return(3)

	debugCmd := NewDebug("debug")
	resp, err := debugCmd.Respond(t.Context(), port.State{Stats: stats}, &domain.Interaction{ID: "123"})
	require.NoError(t, err)

	assert.True(t, resp.Ephemeral)
	assert.Equal(t, domain.ResponseChannelMessageWithSource, resp.Kind)
	for _, want := range []string{"allocated mem:", "goroutines running:", "heap:", "stack:", "compiled with",
		"router version: 1", "commands: ask, debug", "follow-ups in flight: 3"} {
		assert.True(t, strings.Contains(resp.Content, want), want)
	}
	stats.AssertExpectations(t)
}

func TestDebug_Respond_WithoutStats(t *testing.T) {
	resp, err := NewDebug("debug").Respond(t.Context(), port.State{}, &domain.Interaction{ID: "1"})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "router version: 0")
}

func TestDebug_Definition(t *testing.T) {
	def := NewDebug("debug").Definition()
	assert.Equal(t, "debug", def.Name)
	assert.NotEmpty(t, def.Description)
}
