package llm

import (
	"errors"
	"strings"
)

// ErrFatalAPI marks provider errors that will not resolve on their own
// (billing, quota, credentials). Callers can stop retrying when they see it.
var ErrFatalAPI = errors.New("fatal API error")

// fatalPatterns are matched case-insensitively against the error text.
var fatalPatterns = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err describes a non-transient provider
// failure. Providers surface these as plain text, so this is string
// matching by necessity.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError tags fatal provider errors with ErrFatalAPI and passes
// everything else through unchanged.
func wrapFatalError(err error) error {
	if err == nil {
		return nil
	}
	if isFatalAPIError(err) {
		return errors.Join(ErrFatalAPI, err)
	}
	return err
}
