package session

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Location represents the location of the session id on the wire: a header
// name, a query parameter name, or a path prefix the id is appended to
// (e.g. "/messages/" for legacy SSE's "/messages/{session-id}" route).
type Location struct {
	Name string
	Kind string
}

const (
	// KindHeader locates the session id in an HTTP header.
	KindHeader = "header"
	// KindQuery locates the session id in a query parameter.
	KindQuery = "query"
	// KindPath locates the session id as the final path segment after Name
	// (used as a path prefix in that case).
	KindPath = "path"
)

// NewLocation creates a new sessionIdLocation
func NewLocation(name, kind string) *Location {
	return &Location{
		Name: name,
		Kind: kind,
	}
}

// NewHeaderLocation creates a new sessionIdLocation for header
func NewHeaderLocation(name string) *Location {
	return &Location{Name: name, Kind: KindHeader}
}

// NewQueryLocation creates a new sessionIdLocation for query
func NewQueryLocation(name string) *Location {
	return &Location{Name: name, Kind: KindQuery}
}

// NewPathLocation creates a sessionIdLocation whose Name is the path prefix
// the session id is appended to, e.g. NewPathLocation("/messages/").
func NewPathLocation(prefix string) *Location {
	return &Location{Name: prefix, Kind: KindPath}
}

// Locator abstracts reading/writing a session id to/from an HTTP request,
// independent of whether the wire carries it in a header, a query
// parameter, or a URL path segment.
type Locator interface {
	// Locate extracts the session id from the request per location.
	Locate(location *Location, request *http.Request) (string, error)
	// Set writes the session id into values per location (query/path use
	// values; header is set directly by the caller since it mutates a
	// response, not a URL).
	Set(location *Location, values url.Values, id string) error
}

// DefaultLocator is the standard Locator used by every HTTP transport
// handler in this module.
type DefaultLocator struct{}

// NewDefaultLocator constructs a DefaultLocator.
func NewDefaultLocator() *DefaultLocator { return &DefaultLocator{} }

// Locate implements Locator.
func (l *DefaultLocator) Locate(location *Location, request *http.Request) (string, error) {
	if request == nil {
		return "", fmt.Errorf("request was nil")
	}
	if location == nil {
		return "", fmt.Errorf("location was nil")
	}
	switch location.Kind {
	case KindHeader:
		return request.Header.Get(location.Name), nil
	case KindQuery:
		return request.URL.Query().Get(location.Name), nil
	case KindPath:
		path := request.URL.Path
		if idx := strings.Index(path, location.Name); idx >= 0 {
			rest := path[idx+len(location.Name):]
			rest = strings.Trim(rest, "/")
			if rest == "" {
				return "", nil
			}
			// only the first remaining segment is the session id
			if slash := strings.IndexByte(rest, '/'); slash >= 0 {
				rest = rest[:slash]
			}
			return rest, nil
		}
		return "", nil
	}
	return "", fmt.Errorf("unsupported sessionIdLocation kind: %s for name: %s", location.Kind, location.Name)
}

// Set implements Locator.
func (l *DefaultLocator) Set(location *Location, values url.Values, id string) error {
	if location == nil {
		return fmt.Errorf("location was nil")
	}
	switch location.Kind {
	case KindQuery:
		if values == nil {
			return fmt.Errorf("values were nil")
		}
		values.Set(location.Name, id)
		return nil
	case KindPath:
		// path locations are rendered by the caller (PathURL); Set is a
		// no-op so callers can use either style transparently.
		return nil
	default:
		return fmt.Errorf("unsupported sessionIdLocation kind: %s for name: %s", location.Kind, location.Name)
	}
}

// PathURL renders "<Name><id>" for a path-kind location, e.g.
// "/messages/" + "3fa8..." -> "/messages/3fa8...".
func (l *Location) PathURL(id string) string {
	if strings.HasSuffix(l.Name, "/") {
		return l.Name + id
	}
	return l.Name + "/" + id
}
