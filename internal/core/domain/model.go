package domain

import "time"

type InteractionKind int

const (
	KindUnknown InteractionKind = iota
	KindPing
	KindCommand
	KindComponent
	KindAutocomplete
	KindModalSubmit
)

func (k InteractionKind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindCommand:
		return "command"
	case KindComponent:
		return "component"
	case KindAutocomplete:
		return "autocomplete"
	case KindModalSubmit:
		return "modal_submit"
	default:
		return "unknown"
	}
}

// Interaction is an authenticated, parsed unit of work received from the platform.
type Interaction struct {
	ID            string
	ApplicationID string
	// Token is the continuation token used to edit the original response later on.
	Token      string
	Kind       InteractionKind
	GuildID    string
	ChannelID  string
	UserID     string
	Command    *CommandInvocation
	ReceivedAt time.Time
}

type CommandInvocation struct {
	Name    string
	Options map[string]Option
}

type OptionType int

const (
	OptionSubCommand OptionType = iota + 1
	OptionSubCommandGroup
	OptionString
	OptionInteger
	OptionBoolean
	OptionUser
	OptionChannel
	OptionRole
	OptionMentionable
	OptionNumber
	OptionAttachment
)

func (t OptionType) String() string {
	switch t {
	case OptionSubCommand:
		return "subcommand"
	case OptionSubCommandGroup:
		return "subcommand group"
	case OptionString:
		return "string"
	case OptionInteger:
		return "integer"
	case OptionBoolean:
		return "boolean"
	case OptionUser:
		return "user"
	case OptionChannel:
		return "channel"
	case OptionRole:
		return "role"
	case OptionMentionable:
		return "mentionable"
	case OptionNumber:
		return "number"
	case OptionAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// Option is a single typed argument of a command invocation. Sub-command options carry their own nested options.
type Option struct {
	Name    string
	Type    OptionType
	Value   any
	Options map[string]Option
}

func (o Option) String() (string, bool) {
	switch o.Type {
	case OptionString, OptionUser, OptionChannel, OptionRole, OptionMentionable, OptionAttachment:
		s, ok := o.Value.(string)
		return s, ok
	default:
		return "", false
	}
}

func (o Option) Int() (int64, bool) {
	if o.Type != OptionInteger {
		return 0, false
	}

	switch v := o.Value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func (o Option) Number() (float64, bool) {
	if o.Type != OptionNumber && o.Type != OptionInteger {
		return 0, false
	}

	switch v := o.Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func (o Option) Bool() (bool, bool) {
	if o.Type != OptionBoolean {
		return false, false
	}

	b, ok := o.Value.(bool)
	return b, ok
}

type ResponseKind int

const (
	ResponsePong ResponseKind = iota + 1
	ResponseChannelMessageWithSource
	ResponseDeferredChannelMessageWithSource
)

func (k ResponseKind) String() string {
	switch k {
	case ResponsePong:
		return "pong"
	case ResponseChannelMessageWithSource:
		return "channel_message_with_source"
	case ResponseDeferredChannelMessageWithSource:
		return "deferred_channel_message_with_source"
	default:
		return "unknown"
	}
}

type Response struct {
	Kind      ResponseKind
	Content   string
	Embeds    []Embed
	Ephemeral bool
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Footer      string
}

func PongResponse() *Response {
	return &Response{Kind: ResponsePong}
}

// DeferredResponse acknowledges an interaction whose answer will be delivered as a follow-up.
func DeferredResponse() *Response {
	return &Response{Kind: ResponseDeferredChannelMessageWithSource, Ephemeral: true}
}

func MessageResponse(content string, embeds ...Embed) *Response {
	return &Response{Kind: ResponseChannelMessageWithSource, Content: content, Embeds: embeds}
}

// CommandDefinition describes a command as it is announced to the platform.
type CommandDefinition struct {
	Name        string
	Description string
	Options     []OptionDefinition
}

type OptionDefinition struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
}

type Artist struct {
	ID   string
	Name string
}

type AlbumType string

const (
	AlbumTypeAlbum       AlbumType = "album"
	AlbumTypeSingle      AlbumType = "single"
	AlbumTypeCompilation AlbumType = "compilation"
	AlbumTypeAppearsOn   AlbumType = "appears_on"
)

type Album struct {
	ID          string
	Name        string
	Type        AlbumType
	Label       string
	ReleaseDate string
	Artists     []Artist
	Tracks      []Track
}

type Track struct {
	Artists []Artist
}

type Role struct {
	ID   string
	Name string
}

type Author string

const (
	User   Author = "user"
	System Author = "system"
)

type Prompt struct {
	Prompt string
	Author Author
	Model  string
}

type ModelResponse struct {
	Response string
	Metadata ResponseMetadata
}

type ResponseMetadata struct {
	Model            string
	CompletionTokens int
	TotalTokens      int
}
