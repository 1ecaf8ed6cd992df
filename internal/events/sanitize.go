package events

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidMapsEmbed is returned when a pasted map embed cannot be reduced
// to a safe Google Maps URL.
var ErrInvalidMapsEmbed = errors.New("invalid input for Google Maps iframe")

// SanitizeMapsEmbed reduces a pasted snippet to a bare Google Maps embed URL.
// Organisers paste the whole <iframe ...> tag from the Maps share dialog;
// only the src survives, and only when it points at the maps embed endpoint
// over https. Everything else is rejected rather than stored.
func SanitizeMapsEmbed(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}

	link := input
	if strings.Contains(input, "\"") {
		first := strings.Index(input, "\"")
		rest := input[first+1:]
		second := strings.Index(rest, "\"")
		if second < 0 {
			return "", ErrInvalidMapsEmbed
		}
		link = rest[:second]
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", ErrInvalidMapsEmbed
	}
	if u.Scheme != "https" {
		return "", ErrInvalidMapsEmbed
	}
	host := strings.ToLower(u.Host)
	if host != "www.google.com" && host != "maps.google.com" && !strings.HasSuffix(host, ".google.com") {
		return "", ErrInvalidMapsEmbed
	}
	if !strings.HasPrefix(u.Path, "/maps") {
		return "", ErrInvalidMapsEmbed
	}
	return u.String(), nil
}
