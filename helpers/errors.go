package helpers

import (
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// ErrorKind classifies a failed operation for the user-facing reply.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPermission
	KindNotFound
	KindUpstream
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not-found"
	case KindUpstream:
		return "upstream"
	case KindInvalid:
		return "invalid"
	}
	return "unknown"
}

// Error is an operation failure that already knows how to describe itself.
// Key is an i18n id, Args its format arguments.
type Error struct {
	Kind ErrorKind
	Key  string
	Args []interface{}
	Err  error
}

func (e *Error) Error() string {
	msg := e.Key
	if len(e.Args) > 0 {
		msg = fmt.Sprintf("%s %v", e.Key, e.Args)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// Text renders the error through the translation table.
func (e *Error) Text() string {
	return GetTextF(e.Key, e.Args...)
}

func NewError(kind ErrorKind, key string, args ...interface{}) *Error {
	return &Error{Kind: kind, Key: key, Args: args}
}

func NotFound(key string, args ...interface{}) *Error {
	return NewError(KindNotFound, key, args...)
}

func Invalid(key string, args ...interface{}) *Error {
	return NewError(KindInvalid, key, args...)
}

func Denied(key string, args ...interface{}) *Error {
	return NewError(KindPermission, key, args...)
}

// Upstream wraps a failed call to an external API, status 0 means the
// request itself failed.
func Upstream(status int, err error) *Error {
	if status != 0 {
		return &Error{Kind: KindUpstream, Key: "bot.errors.upstream-status", Args: []interface{}{status}, Err: err}
	}
	return &Error{Kind: KindUpstream, Key: "bot.errors.upstream", Err: err}
}

// Classify maps an error to its kind. Discord REST errors are sorted by
// their JSON error code, falling back to the HTTP status.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var own *Error
	if errors.As(err, &own) {
		return own.Kind
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil {
			switch rest.Message.Code {
			case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
				return KindPermission
			case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMember,
				discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownRole,
				discordgo.ErrCodeUnknownUser, discordgo.ErrCodeUnknownBan,
				discordgo.ErrCodeUnknownGuild:
				return KindNotFound
			}
		}
		if rest.Response != nil {
			switch rest.Response.StatusCode {
			case http.StatusForbidden:
				return KindPermission
			case http.StatusNotFound:
				return KindNotFound
			}
		}
	}

	return KindUnknown
}

// IsPermissionError reports whether the platform refused the call
func IsPermissionError(err error) bool {
	return Classify(err) == KindPermission
}

// Describe renders any error for a chat reply.
func Describe(err error) string {
	var own *Error
	if errors.As(err, &own) {
		return own.Text()
	}

	switch Classify(err) {
	case KindPermission:
		return GetText("bot.errors.no-permission")
	case KindNotFound:
		return GetText("bot.errors.not-found")
	}
	return GetTextF("bot.errors.general", err.Error())
}
