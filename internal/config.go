package internal

import (
	"fmt"
	"time"
)

// Config holds every tunable of the server process. All values come from the
// environment; cmd loads a .env file first when one is present.
type Config struct {
	Addr             string        `env:"ADDR,default=:8082"`
	BadgerFilepath   string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret        string        `env:"JWT_SECRET,required=true"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,default=10s"`
	SessionBuffer    int           `env:"SESSION_BUFFER,default=256"`
	NotifyEndpoint   string        `env:"NOTIFY_ENDPOINT,required=true"`
	NotifyAuthToken  string        `env:"NOTIFY_AUTH_TOKEN"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT,default=3s"`
	CensoredWords    string        `env:"CENSORED_WORDS"`
	CharReplacement  string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

// CharacterRune converts the configured replacement string to a single rune.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
