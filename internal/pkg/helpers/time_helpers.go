package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses config durations such as "15m". Invalid input logs a
// warning and yields fallback.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	log.Warn().Err(err).Str("value", s).Dur("fallback", fallback).Msg("Invalid duration in config")
	return fallback
}

// ParseLocation loads an IANA zone such as "Asia/Kolkata". Session reminders
// are computed in this zone; empty or unknown names mean UTC.
func ParseLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("timezone", name).Msg("Unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}
