package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// ExtractBearerToken pulls the raw token out of an Authorization header.
// The "Bearer " prefix is case-insensitive and optional. A scheme with
// empty credentials is rejected.
func ExtractBearerToken(header string) (string, error) {
	header = strings.TrimLeft(header, " ")
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		token := strings.TrimSpace(header[len("bearer "):])
		if token == "" {
			return "", ErrInvalidToken
		}
		return token, nil
	}

	token := strings.TrimSpace(header)
	if token == "" || strings.EqualFold(token, "bearer") {
		return "", ErrInvalidToken
	}
	return token, nil
}
