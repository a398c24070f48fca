package command

import (
	"context"
	"fmt"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"strings"

	"github.com/rs/zerolog/log"
)

type Debug struct {
	command string
}

func NewDebug(command string) *Debug {
	return &Debug{command: command}
}

func (d *Debug) GetCommand() string {
	return d.command
}

func (d *Debug) Definition() domain.CommandDefinition {
	return domain.CommandDefinition{
		Name:        d.command,
		Description: "Show runtime information about the bot",
	}
}

const kb = 1024
const debugTemplate = `allocated mem: %d KB
goroutines running: %d
heap: %d KB
stack: %d KB
compiled with %s for %s-%s
router version: %d
commands: %s
follow-ups in flight: %d
`
const metricCount = 3

func (d *Debug) Respond(_ context.Context, state port.State, interaction *domain.Interaction) (*domain.Response, error) {
	l := log.With().
		Str("interactionId", interaction.ID).
		Str("command", d.GetCommand()).
		Logger()

	data := make([]metrics.Sample, metricCount)
	data[0] = metrics.Sample{Name: "/memory/classes/heap/objects:bytes"}
	data[1] = metrics.Sample{Name: "/memory/classes/heap/stacks:bytes"}
	data[2] = metrics.Sample{Name: "/memory/classes/total:bytes"}

	metrics.Read(data)

	l.Info().Msg("handling request")

	var goos, goarch string
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "GOOS":
				goos = setting.Value
			case "GOARCH":
				goarch = setting.Value
			}
		}
	}

	if goos == "" {
		goos, goarch = runtime.GOOS, runtime.GOARCH
	}

	var version uint64
	var commands []string
	var inFlight int
	if state.Stats != nil {
		view := state.Stats.RouterView()
		version = view.Version()
		commands = view.ListCommands()
		inFlight = state.Stats.InFlightFollowUps()
	}

	response := domain.MessageResponse(fmt.Sprintf(
		debugTemplate,
		data[2].Value.Uint64()/kb,
		runtime.NumGoroutine(),
		data[0].Value.Uint64()/kb,
		data[1].Value.Uint64()/kb,
		runtime.Version(), goos, goarch,
		version,
		strings.Join(commands, ", "),
		inFlight,
	))
	response.Ephemeral = true

	return response, nil
}
