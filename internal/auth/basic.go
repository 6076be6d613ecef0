package auth

import (
	"encoding/base64"
	"strings"
)

// decodeBasic parses the credentials part of a Basic authorization header.
func decodeBasic(encoded string) (username, password string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}

	username, password, ok = strings.Cut(string(raw), ":")
	if !ok || username == "" {
		return "", "", false
	}

	return username, password, true
}
