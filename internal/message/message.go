// Package message renders user-facing text in the configured locale.
package message

import (
	"embed"
	"errors"
	"fmt"
	"path"

	"github.com/book-expert/vridge/internal/core"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Message ids.
const (
	ErrorConnectivity    = "ErrorConnectivity"
	ErrorUnknown         = "ErrorUnknown"
	ErrorUnknownDetail   = "ErrorUnknownDetail"
	ErrorUnauthenticated = "ErrorUnauthenticated"
	ErrorInvalidSession  = "ErrorInvalidSession"
	LoginSucceeded       = "LoginSucceeded"
	LoginFailed          = "LoginFailed"
	LoggedOut            = "LoggedOut"
	UnregisterSucceeded  = "UnregisterSucceeded"
	UnregisterFailed     = "UnregisterFailed"
	VoiceReady           = "VoiceReady"
	VoicePending         = "VoicePending"
	RecordPrompt         = "RecordPrompt"
	RecordHelp           = "RecordHelp"
	RecordFinishing      = "RecordFinishing"
	RecordSubmitted      = "RecordSubmitted"
	SynthSubmitted       = "SynthSubmitted"
	MessageFailed        = "MessageFailed"
	MessagePending       = "MessagePending"
)

const localesDir = "locales"

//go:embed locales/*.toml
var localeFS embed.FS

// Catalog localizes messages for one locale, falling back to English.
type Catalog struct {
	localizer *i18n.Localizer
	tag       language.Tag
}

// New loads the bundled message files and selects locale. An unparsable
// locale falls back to English.
func New(locale string) (*Catalog, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := localeFS.ReadDir(localesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list message files: %w", err)
	}

	for _, entry := range entries {
		name := path.Join(localesDir, entry.Name())

		data, readErr := localeFS.ReadFile(name)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, readErr)
		}

		_, parseErr := bundle.ParseMessageFileBytes(data, name)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, parseErr)
		}
	}

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	return &Catalog{
		localizer: i18n.NewLocalizer(bundle, tag.String(), language.English.String()),
		tag:       tag,
	}, nil
}

// Language returns the selected language tag.
func (c *Catalog) Language() language.Tag {
	return c.tag
}

// Text renders message id with data. Unknown ids render as the id itself.
func (c *Catalog) Text(id string, data map[string]any) string {
	text, err := c.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}

	return text
}

// ForError turns err into the message shown to the user: a connectivity hint
// for transport failures, a generic message otherwise, with the server's
// explanation appended when it sent one.
func (c *Catalog) ForError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case core.IsNetwork(err):
		return c.Text(ErrorConnectivity, nil)
	case errors.Is(err, core.ErrUnauthenticated):
		return c.Text(ErrorUnauthenticated, nil)
	case errors.Is(err, core.ErrInvalidSession):
		return c.Text(ErrorInvalidSession, nil)
	}

	var serverErr *core.ServerError
	if errors.As(err, &serverErr) && serverErr.Detail != "" {
		return c.Text(ErrorUnknownDetail, map[string]any{"Detail": serverErr.Detail})
	}

	if err.Error() == "" {
		return c.Text(ErrorUnknown, nil)
	}

	return c.Text(ErrorUnknownDetail, map[string]any{"Detail": err.Error()})
}
