package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	urlOption      = "url"
	spotifyHost    = "open.spotify.com"
	spotifyIDLen   = 22
	variousArtists = "Various Artists"
	recentWindow   = 52 * 7 * 24 * time.Hour
)

const copyInstructions = "Copy the `Content` and edit it to your liking, then post it yourself. " +
	"The bot doesn't post for you because it needs human understanding of the release and not just pure data. " +
	"And, you don't have to use this bot if you don't want to."

var (
	errMissingResourceType = errors.New("no resource type in the URL")
	errMissingResourceID   = errors.New("no resource ID in the URL")
)

type spotifyResource struct {
	kind string
	id   string
}

type NewRelease struct {
	command string
	now     func() time.Time
}

func NewNewRelease(command string) *NewRelease {
	return &NewRelease{command: command, now: time.Now}
}

func (n *NewRelease) GetCommand() string {
	return n.command
}

func (n *NewRelease) Definition() domain.CommandDefinition {
	return domain.CommandDefinition{
		Name:        n.command,
		Description: "Post a new music release in this channel",
		Options: []domain.OptionDefinition{{
			Name:        urlOption,
			Description: "The URL to the release on Spotify (only service supported so far)",
			Type:        domain.OptionString,
			Required:    true,
		}},
	}
}

func (n *NewRelease) Respond(ctx context.Context, state port.State, interaction *domain.Interaction) (*domain.Response, error) {
	l := log.With().
		Str("interactionId", interaction.ID).
		Str("guildId", interaction.GuildID).
		Str("command", n.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	if interaction.GuildID == "" {
		return nil, domain.NewUserError("the command was run outside of a Discord server")
	}

	if state.Roles == nil || state.Releases == nil {
		return nil, domain.NewUserError("this command is not configured on this bot")
	}

	roles, err := state.Roles.GuildRoles(ctx, interaction.GuildID)
	if err != nil {
		l.Error().Err(err).Msg("failed to fetch guild roles")
		return nil, domain.WrapUserError(err, "couldn't get the roles in this Discord server")
	}

	resource, err := extractResource(interaction)
	if err != nil {
		return nil, err
	}

	if resource.kind != "album" {
		return nil, domain.NewUserError(fmt.Sprintf(
			"the `url` is for Spotify, but not a resource type valid for this command (currently just album), got %s %q",
			resource.kind, resource.id))
	}

	album, err := state.Releases.FetchAlbum(ctx, resource.id)
	if err != nil {
		l.Error().Err(err).Str("albumId", resource.id).Msg("failed to fetch album")
		return nil, spotifyUserError(err)
	}

	message := formatRelease(album, newRoleIndex(roles), n.now())
	l.Debug().Str("albumId", album.ID).Msg("release formatted")

	return &domain.Response{
		Kind:      domain.ResponseChannelMessageWithSource,
		Content:   copyInstructions,
		Ephemeral: true,
		Embeds: []domain.Embed{
			{Title: "Content", Description: "```\n" + message + "\n```", Color: domain.ColorSuccess},
			{Title: "Preview", Description: message},
		},
	}, nil
}

func spotifyUserError(err error) *domain.UserError {
	switch {
	case errors.Is(err, domain.ErrSpotifyAuth):
		return domain.WrapUserError(err, "couldn't authenticate with Spotify")
	case errors.Is(err, domain.ErrSpotifyAlbumTracks):
		return domain.WrapUserError(err, "couldn't retrieve data for tracks in this album from Spotify")
	default:
		return domain.WrapUserError(err, "couldn't retrieve album data from Spotify")
	}
}

func extractResource(interaction *domain.Interaction) (spotifyResource, error) {
	if interaction.Command == nil {
		return spotifyResource{}, domain.NewUserError("the `url` argument wasn't provided")
	}

	option, ok := interaction.Command.Options[urlOption]
	if !ok {
		return spotifyResource{}, domain.NewUserError("the `url` argument wasn't provided")
	}

	raw, ok := option.String()
	if !ok {
		return spotifyResource{}, domain.NewUserError(fmt.Sprintf(
			"the `url` argument wasn't a string like it's supposed to be, it was actually %v", option.Value))
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return spotifyResource{}, domain.WrapUserError(err, "the `url` argument couldn't be parsed as a URL")
	}

	resource, err := parseSpotifyResource(u)
	if err != nil {
		return spotifyResource{}, domain.WrapUserError(err,
			"the `url` isn't to a supported service (currently just Spotify): "+err.Error())
	}

	return resource, nil
}

func parseSpotifyResource(u *url.URL) (spotifyResource, error) {
	if !strings.EqualFold(u.Host, spotifyHost) {
		return spotifyResource{}, fmt.Errorf("the host %q is not %s", u.Host, spotifyHost)
	}

	segments := make([]string, 0, 3)
	for _, segment := range strings.Split(u.Path, "/") {
		// localized links look like /intl-de/album/<id>
		if segment == "" || strings.HasPrefix(segment, "intl-") {
			continue
		}
		segments = append(segments, segment)
	}

	if len(segments) < 1 {
		return spotifyResource{}, errMissingResourceType
	}

	if len(segments) < 2 {
		return spotifyResource{}, errMissingResourceID
	}

	kind, id := segments[0], segments[1]
	switch kind {
	case "album", "track", "playlist":
	default:
		return spotifyResource{}, fmt.Errorf(
			"the resource type in the URL (%q) is not one that I recognize (e.g. album)", kind)
	}

	if !validSpotifyID(id) {
		return spotifyResource{}, fmt.Errorf(
			"the resource ID in the URL (%q) is not valid by Spotify's rules", id)
	}

	return spotifyResource{kind: kind, id: id}, nil
}

func validSpotifyID(id string) bool {
	if len(id) != spotifyIDLen {
		return false
	}

	for i := 0; i < len(id); i++ {
		c := id[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}

	return true
}

// roleIndex looks up guild roles by name, ignoring ASCII case.
type roleIndex map[string]domain.Role

func newRoleIndex(roles []domain.Role) roleIndex {
	index := make(roleIndex, len(roles))
	for _, role := range roles {
		index[foldASCII(role.Name)] = role
	}

	return index
}

func (r roleIndex) lookup(name string) (domain.Role, bool) {
	role, ok := r[foldASCII(name)]
	return role, ok
}

func (r roleIndex) mention(name string) string {
	if role, ok := r.lookup(name); ok {
		return "<@&" + role.ID + ">"
	}

	return "**" + name + "**"
}

func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}

	return string(b)
}

func formatRelease(album domain.Album, roles roleIndex, now time.Time) string {
	seen := make(map[string]struct{})
	var mainArtists, additionalArtists []string
	for _, artist := range album.Artists {
		if artist.ID == "" {
			continue
		}
		if _, ok := seen[artist.ID]; !ok {
			seen[artist.ID] = struct{}{}
			mainArtists = append(mainArtists, artist.Name)
		}
	}

	for _, track := range album.Tracks {
		for _, artist := range track.Artists {
			if artist.ID == "" {
				continue
			}
			if _, ok := seen[artist.ID]; !ok {
				seen[artist.ID] = struct{}{}
				additionalArtists = append(additionalArtists, artist.Name)
			}
		}
	}

	title, releaseType := releaseTitle(album)
	releaseName := title
	if releaseType != "" {
		releaseName = fmt.Sprintf("%s (%s, %d tracks)", title, releaseType, len(album.Tracks))
	}

	var first strings.Builder
	if len(mainArtists) != 1 || mainArtists[0] != variousArtists {
		for i, name := range mainArtists {
			if i > 0 {
				first.WriteString(" & ")
			}
			first.WriteString(roles.mention(name))
		}
		first.WriteString(" - ")
	}

	fmt.Fprintf(&first, "[%s](<https://%s/album/%s>)", releaseName, spotifyHost, album.ID)

	if album.Label != "" {
		if _, ok := roles.lookup(album.Label); ok {
			fmt.Fprintf(&first, " (on %s)", roles.mention(album.Label))
		}
	}

	if date, ok := formatReleaseDate(album.ReleaseDate, now); ok {
		fmt.Fprintf(&first, " [%s]", date)
	}

	if len(additionalArtists) == 0 {
		return first.String()
	}

	mentions := make([]string, len(additionalArtists))
	for i, name := range additionalArtists {
		mentions[i] = roles.mention(name)
	}

	return first.String() + "\nwith " + strings.Join(mentions, ", ")
}

func releaseTitle(album domain.Album) (string, string) {
	var releaseType string
	switch album.Type {
	case domain.AlbumTypeAlbum:
		releaseType = "LP"
	case domain.AlbumTypeCompilation:
		releaseType = "Compilation"
	case domain.AlbumTypeAppearsOn:
		releaseType = "Appears On (I don't know what this means lol)"
	}

	title := album.Name
	if trimmed, ok := strings.CutSuffix(title, " - EP"); ok {
		return trimmed, "EP"
	}
	if trimmed, ok := strings.CutSuffix(title, " EP"); ok {
		return trimmed, "EP"
	}

	return title, releaseType
}

// formatReleaseDate renders a Y-M-D release date. Dates with only a year or month precision are skipped.
func formatReleaseDate(raw string, now time.Time) (string, bool) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return "", false
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 0 {
		return "", false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return "", false
	}

	released := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if released.Day() != day {
		return "", false
	}

	now = now.UTC()
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, time.UTC)

	// negative for releases in the future
	if endOfToday.Sub(released) < recentWindow {
		return fmt.Sprintf("%d/%d", month, day), true
	}

	return fmt.Sprintf("%d/%d/%d", year, month, day), true
}
