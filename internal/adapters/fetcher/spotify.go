package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"releasebot/internal/core/domain"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultAPIURL      = "https://api.spotify.com"
	DefaultAccountsURL = "https://accounts.spotify.com"

	tracksPageSize = 50
	requestTimeout = 10 * time.Second
)

var errUnexpectedStatus = errors.New("unexpected status")

// fullAlbum adds the record label, which the client library's album type does not decode.
type fullAlbum struct {
	spotify.FullAlbum
	Label string `json:"label"`
}

// Spotify fetches album data from the Spotify Web API using the client credentials flow.
type Spotify struct {
	tokens oauth2.TokenSource
	http   *http.Client
	client *spotify.Client
	apiURL string
}

func NewSpotify(clientID, clientSecret, apiURL, accountsURL string) *Spotify {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if accountsURL == "" {
		accountsURL = DefaultAccountsURL
	}

	apiURL = strings.TrimSuffix(apiURL, "/") + "/v1/"

	credentials := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     strings.TrimSuffix(accountsURL, "/") + "/api/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: requestTimeout})
	tokens := credentials.TokenSource(ctx)

	httpClient := oauth2.NewClient(ctx, tokens)
	httpClient.Timeout = requestTimeout

	return &Spotify{
		tokens: tokens,
		http:   httpClient,
		client: spotify.New(httpClient, spotify.WithBaseURL(apiURL)),
		apiURL: apiURL,
	}
}

func (s *Spotify) FetchAlbum(ctx context.Context, id string) (domain.Album, error) {
	if _, err := s.tokens.Token(); err != nil {
		return domain.Album{}, fmt.Errorf("%w: %w", domain.ErrSpotifyAuth, err)
	}

	album, err := s.fetchAlbum(ctx, id)
	if err != nil {
		return domain.Album{}, fmt.Errorf("%w: %w", domain.ErrSpotifyAlbum, err)
	}

	tracks, err := s.fetchTracks(ctx, id)
	if err != nil {
		return domain.Album{}, fmt.Errorf("%w: %w", domain.ErrSpotifyAlbumTracks, err)
	}

	log.Debug().Str("albumId", id).Int("tracks", len(tracks)).Msg("fetched album from Spotify")

	return domain.Album{
		ID:          string(album.ID),
		Name:        album.Name,
		Type:        domain.AlbumType(album.AlbumType),
		Label:       album.Label,
		ReleaseDate: album.ReleaseDate,
		Artists:     toArtists(album.Artists),
		Tracks:      tracks,
	}, nil
}

func (s *Spotify) fetchAlbum(ctx context.Context, id string) (*fullAlbum, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"albums/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GET request for Spotify: %w", err)
	}

	res, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing Spotify request: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %d from %s", errUnexpectedStatus, res.StatusCode, req.URL.Path)
	}

	var album fullAlbum
	if err := json.NewDecoder(res.Body).Decode(&album); err != nil {
		return nil, fmt.Errorf("error unmarshalling Spotify response: %w", err)
	}

	return &album, nil
}

func (s *Spotify) fetchTracks(ctx context.Context, id string) ([]domain.Track, error) {
	page, err := s.client.GetAlbumTracks(ctx, spotify.ID(id), spotify.Limit(tracksPageSize))
	if err != nil {
		return nil, err
	}

	var tracks []domain.Track
	for {
		for _, item := range page.Tracks {
			tracks = append(tracks, domain.Track{Artists: toArtists(item.Artists)})
		}

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return tracks, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func toArtists(artists []spotify.SimpleArtist) []domain.Artist {
	out := make([]domain.Artist, len(artists))
	for i, artist := range artists {
		out[i] = domain.Artist{ID: string(artist.ID), Name: artist.Name}
	}

	return out
}
