package domain

import "errors"

var (
	ErrMissingCommandData     = errors.New("command interaction carries no command data")
	ErrUnsupportedInteraction = errors.New("unsupported interaction kind")
	ErrDuplicateCommand       = errors.New("duplicate command name")
	ErrEmptyCommandName       = errors.New("empty command name")
	ErrSendingFollowUpFailed  = errors.New("failed to deliver follow-up")
	ErrEmptyPrompt            = errors.New("empty prompt")
)

const (
	ColorRed500  = 0xef4444
	ColorPink500 = 0xec4899

	ColorError   = ColorRed500
	ColorSuccess = ColorPink500
)

// MessageLimit is the maximum length of a message's content accepted by the platform.
const MessageLimit = 2000

var (
	ErrSpotifyAuth        = errors.New("spotify authentication failed")
	ErrSpotifyAlbum       = errors.New("spotify album request failed")
	ErrSpotifyAlbumTracks = errors.New("spotify album tracks request failed")
)
