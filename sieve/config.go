package sieve

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/migadu/sievecore/consts"
)

// InterpreterConfig is the TOML-tagged configuration for one
// Interpreter, loaded via toml.DecodeFile rather than hand-rolled
// flag parsing.
type InterpreterConfig struct {
	Extensions struct {
		// Advertise restricts which extension names a script's require
		// directive may successfully request; passed to the parser as
		// parser.Options.AdvertisedExtensions.
		Advertise []string `toml:"advertise"`
	} `toml:"extensions"`

	Vacation struct {
		MinResponseDays int64 `toml:"min_response_days"`
		MaxResponseDays int64 `toml:"max_response_days"`
	} `toml:"vacation"`

	Mailbox struct {
		TransliterateNames bool `toml:"transliterate_names"`
	} `toml:"mailbox"`

	Regex struct {
		// CaseInsensitiveByDefault forces ICASE on :regex tests whose
		// comparator tag was not explicit, beyond the comparator-driven
		// behavior already in parser.validateRegex.
		CaseInsensitiveByDefault bool `toml:"case_insensitive_by_default"`
	} `toml:"regex"`
}

// DefaultInterpreterConfig matches the vacation day clamp named in
// §4.2 ("clamped to the host's [min_response, max_response]") and
// consts.Vacation{Min,Max}Days.
func DefaultInterpreterConfig() InterpreterConfig {
	cfg := InterpreterConfig{}
	cfg.Extensions.Advertise = append([]string{}, consts.SupportedExtensions...)
	cfg.Vacation.MinResponseDays = consts.VacationMinDays
	cfg.Vacation.MaxResponseDays = consts.VacationMaxDays
	return cfg
}

// LoadConfig reads an InterpreterConfig from path, starting from
// DefaultInterpreterConfig so unset TOML keys keep their defaults,
// then validates the vacation clamp bounds.
func LoadConfig(path string) (InterpreterConfig, error) {
	cfg := DefaultInterpreterConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return InterpreterConfig{}, fmt.Errorf("sieve: load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return InterpreterConfig{}, err
	}
	return cfg, nil
}

// Validate checks the vacation day clamp is sane: the RFC 5230
// ":days N" clamp (§4.2) needs bounds, and this is where they're
// enforced.
func (c InterpreterConfig) Validate() error {
	if c.Vacation.MinResponseDays <= 0 {
		return fmt.Errorf("sieve: vacation.min_response_days must be > 0")
	}
	if c.Vacation.MaxResponseDays < c.Vacation.MinResponseDays {
		return fmt.Errorf("sieve: vacation.max_response_days must be >= min_response_days")
	}
	return nil
}
