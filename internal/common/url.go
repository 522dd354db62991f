package common

import (
	"strings"
)

// JoinURL appends a route to a base URL with exactly one slash between them.
// An empty route returns the base unchanged.
func JoinURL(base, route string) string {
	if route == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(route, "/")
}

// ResolveURL resolves a scenario route against the base URL. Absolute http(s)
// routes are returned as-is.
func ResolveURL(base, route string) string {
	lower := strings.ToLower(route)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return route
	}
	if route == "" {
		route = "/"
	}
	return JoinURL(base, route)
}
