package relay

import (
	"strconv"
	"strings"
)

// Settings keys.
const (
	KeyAppEnable          = "app-enable"
	KeyMessageMods        = "message-mods"
	KeyMessageUsers       = "message-users"
	KeySendForModTeam     = "send-for-modteam"
	KeySendForAutoMod     = "send-for-automod"
	KeySendForPosts       = "send-for-posts"
	KeyIgnoreMods         = "ignore-mods"
	KeyBotUsernames       = "bot-usernames"
	KeyModBlacklist       = "mod-blacklist"
	KeyRecipientWhitelist = "recipient-whitelist"
	KeySubjectToUser      = "subject-to-user"
	KeyMessageToUser      = "message-to-user"
)

// SettingsStore returns a bool, a string or nil for unset keys.
type SettingsStore interface {
	Get(key string) any
}

// MapStore is a SettingsStore backed by a map.
type MapStore map[string]any

func (m MapStore) Get(key string) any { return m[key] }

// Settings is the snapshot one event is processed with.
type Settings struct {
	Subreddit string `json:"subreddit"`

	AppEnabled     bool `json:"app-enable"`
	MessageMods    bool `json:"message-mods"`
	MessageUsers   bool `json:"message-users"`
	SendForModTeam bool `json:"send-for-modteam"`
	SendForAutoMod bool `json:"send-for-automod"`
	SendForPosts   bool `json:"send-for-posts"`
	IgnoreMods     bool `json:"ignore-mods"`

	// Comma separated lists, kept raw.
	BotUsernames       string `json:"bot-usernames"`
	ModBlacklist       string `json:"mod-blacklist"`
	RecipientWhitelist string `json:"recipient-whitelist"`

	SubjectToUser string `json:"subject-to-user"`
	MessageToUser string `json:"message-to-user"`
}

// LoadSettings reads every key once. Unset booleans are false and unset
// strings empty; app-enable defaults to true.
func LoadSettings(subreddit string, store SettingsStore) Settings {
	if store == nil {
		store = MapStore{}
	}
	return Settings{
		Subreddit:          subreddit,
		AppEnabled:         boolValue(store.Get(KeyAppEnable), true),
		MessageMods:        boolValue(store.Get(KeyMessageMods), false),
		MessageUsers:       boolValue(store.Get(KeyMessageUsers), false),
		SendForModTeam:     boolValue(store.Get(KeySendForModTeam), false),
		SendForAutoMod:     boolValue(store.Get(KeySendForAutoMod), false),
		SendForPosts:       boolValue(store.Get(KeySendForPosts), false),
		IgnoreMods:         boolValue(store.Get(KeyIgnoreMods), false),
		BotUsernames:       stringValue(store.Get(KeyBotUsernames)),
		ModBlacklist:       stringValue(store.Get(KeyModBlacklist)),
		RecipientWhitelist: stringValue(store.Get(KeyRecipientWhitelist)),
		SubjectToUser:      stringValue(store.Get(KeySubjectToUser)),
		MessageToUser:      stringValue(store.Get(KeyMessageToUser)),
	}
}

// UserTemplatesSet reports whether both user templates are non-blank.
func (s Settings) UserTemplatesSet() bool {
	return strings.TrimSpace(s.SubjectToUser) != "" && strings.TrimSpace(s.MessageToUser) != ""
}

func boolValue(v any, def bool) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
	}
	return def
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// splitList splits a comma separated setting and trims each entry. Empty
// entries are kept so callers can return the list verbatim.
func splitList(raw string) []string {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
