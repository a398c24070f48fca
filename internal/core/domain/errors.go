package domain

import (
	"errors"
	"fmt"
)

// CommandNotFoundError is returned when an interaction names a command the router does not know about,
// e.g. after the platform was told about a command this process no longer registers.
type CommandNotFoundError struct {
	Name string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("asked to handle a non-existent command %q", e.Name)
}

// UserError carries a message that is safe to show to the person who invoked a command.
type UserError struct {
	Message string
	Err     error
}

func NewUserError(message string) *UserError {
	return &UserError{Message: message}
}

func WrapUserError(err error, message string) *UserError {
	return &UserError{Message: message, Err: err}
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}

	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

const genericErrorTemplate = "something went wrong while running /%s"

// RenderError turns an error into the ephemeral message shown to the user. Only UserError messages are shown
// verbatim, anything else is replaced with a generic text.
func RenderError(command string, err error, footer string) *Response {
	description := fmt.Sprintf(genericErrorTemplate, command)

	var notFound *CommandNotFoundError
	var userErr *UserError
	switch {
	case errors.As(err, &userErr):
		description = userErr.Message
	case errors.As(err, &notFound):
		description = fmt.Sprintf("I don't know the command /%s anymore, it may have been removed", notFound.Name)
	}

	return &Response{
		Kind:      ResponseChannelMessageWithSource,
		Ephemeral: true,
		Embeds: []Embed{{
			Title:       "Error",
			Description: description,
			Color:       ColorError,
			Footer:      footer,
		}},
	}
}
