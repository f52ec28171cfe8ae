// Package cookie holds the two cookie shapes the engine needs: the flat
// name/value pairs a client sends in its Cookie header, and the jar of
// Set-Cookie lines a response carries back.
package cookie

import (
	"sort"
	"strings"
)

// Parse parses a Cookie request header ("a=1; b=2") into a name/value map.
// An empty header yields an empty map. Malformed fragments are skipped.
func Parse(header string) map[string]string {
	cookies := make(map[string]string)

	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		cookies[name] = value
	}

	return cookies
}

// Jar collects cookies to be set on a response.
type Jar struct {
	cookies map[string]string
}

func NewJar() *Jar {
	return &Jar{cookies: make(map[string]string)}
}

// Set adds or replaces a cookie.
func (j *Jar) Set(name, value string) {
	j.cookies[name] = value
}

// Get returns a cookie value by name.
func (j *Jar) Get(name string) (string, bool) {
	v, ok := j.cookies[name]
	return v, ok
}

// Len returns the number of cookies in the jar.
func (j *Jar) Len() int {
	return len(j.cookies)
}

// Lines returns one "Set-Cookie: name=value" header line per cookie,
// sorted by name so serialization is deterministic.
func (j *Jar) Lines() []string {
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, "Set-Cookie: "+name+"="+j.cookies[name])
	}
	return lines
}
