package common

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/johanforsgren/threadline/internal/domain"
)

// ParseHandle splits "name@instance".
func ParseHandle(handle string) (name, instance string, err error) {
	parts := strings.Split(handle, "@")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expected 'name@instance', got '%s'", ErrInvalidHandleFormat, handle)
	}

	name = parts[0]
	instance = parts[1]
	if name == "" || instance == "" {
		return "", "", fmt.Errorf("%w: name and instance must be non-empty", ErrInvalidHandleFormat)
	}

	return name, instance, nil
}

func FormatHandle(name, instance string) string {
	return fmt.Sprintf("%s@%s", name, InstanceHost(instance))
}

// RemoteHandle is the handle of a person as seen from any instance: their
// name at the host of their actor id.
func RemoteHandle(p domain.Person) string {
	host := InstanceHost(p.ActorID)
	if host == "" {
		return p.Name
	}
	return FormatHandle(p.Name, host)
}

// InstanceHost reduces an endpoint, URL or actor id to its host.
func InstanceHost(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}

// BaseURL turns an endpoint into the root URL requests are sent to. Bare
// hosts default to https.
func BaseURL(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "https://" + endpoint
}
