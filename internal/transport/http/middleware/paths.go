package middleware

import (
	"path"
	"strings"
)

type PathClass int

const (
	// PathProtected requires a valid, unexpired session.
	PathProtected PathClass = iota
	// PathPublic is served to anyone.
	PathPublic
	// PathInternal is framework plumbing and static assets; never inspected.
	PathInternal
)

func (c PathClass) String() string {
	switch c {
	case PathPublic:
		return "public"
	case PathInternal:
		return "internal"
	default:
		return "protected"
	}
}

// PathClassifier partitions request paths for the guard.
type PathClassifier struct {
	InternalPrefixes []string
	InternalPaths    []string
	PublicPaths      []string
	PublicPrefixes   []string
}

func DefaultPathClassifier() PathClassifier {
	return PathClassifier{
		InternalPrefixes: []string{"/_next/", "/static/", "/assets/", "/uploads/", "/ws/"},
		InternalPaths:    []string{"/favicon.ico", "/robots.txt", "/manifest.json"},
		PublicPaths: []string{
			"/",
			"/login",
			"/register",
			"/api/health",
			"/api/auth/login",
			"/api/auth/register",
			"/api/auth/logout",
			"/api/auth/google/login",
			"/api/auth/google/callback",
		},
		PublicPrefixes: []string{"/api/temples", "/api/zodiac"},
	}
}

// cleanPath resolves dot segments so a path cannot borrow an internal
// prefix it does not end up under. A trailing slash is kept.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean("/" + strings.TrimPrefix(p, "/"))
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// Classify cleans p before matching it.
func (c PathClassifier) Classify(p string) PathClass {
	p = cleanPath(p)
	for _, prefix := range c.InternalPrefixes {
		if strings.HasPrefix(p, prefix) {
			return PathInternal
		}
	}
	for _, exact := range c.InternalPaths {
		if p == exact {
			return PathInternal
		}
	}
	// Outside the API, any file-looking final segment is an asset.
	if !strings.HasPrefix(p, "/api/") && path.Ext(path.Base(p)) != "" {
		return PathInternal
	}

	trimmed := p
	if len(trimmed) > 1 {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	for _, exact := range c.PublicPaths {
		if trimmed == exact {
			return PathPublic
		}
	}
	for _, prefix := range c.PublicPrefixes {
		if trimmed == prefix || strings.HasPrefix(trimmed, prefix+"/") {
			return PathPublic
		}
	}
	return PathProtected
}
