// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package terms cleans raw disease names and groups them by their cleaned
// form. Everything here is pure: no network, no logging, no clock.
package terms

import (
	"regexp"
	"sort"
	"strings"
)

// bracketed matches an opening parenthesis up to its nearest closing one.
var bracketed = regexp.MustCompile(`\([^)]*\)`)

// Clean removes every parenthesized qualifier from name, collapses runs of
// whitespace to a single space, and trims the result.
//
//	Clean("ACUTE CORONARY SYNDROME (ACS)") == "ACUTE CORONARY SYNDROME"
//
// Clean is total and idempotent.
func Clean(name string) string {
	stripped := bracketed.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(stripped), " ")
}

// Groups maps each cleaned name to the raw names that produced it. Raw
// names keep their input order inside a bucket. A Groups value is built
// once by Deduplicate and never mutated afterwards.
type Groups struct {
	order   []string
	buckets map[string][]string
}

// Keys returns the cleaned names in first-seen order.
func (g *Groups) Keys() []string {
	return append([]string(nil), g.order...)
}

// Originals returns the raw names grouped under cleaned, in input order.
func (g *Groups) Originals(cleaned string) []string {
	return append([]string(nil), g.buckets[cleaned]...)
}

// Len returns the number of distinct cleaned names.
func (g *Groups) Len() int {
	return len(g.order)
}

// Size returns the total number of raw names across all buckets.
func (g *Groups) Size() int {
	n := 0
	for _, b := range g.buckets {
		n += len(b)
	}
	return n
}

// Merged returns how many raw names were folded into an existing bucket.
func (g *Groups) Merged() int {
	return g.Size() - g.Len()
}

// Map returns a copy of the buckets suitable for serialization.
func (g *Groups) Map() map[string][]string {
	out := make(map[string][]string, len(g.buckets))
	for k, v := range g.buckets {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Deduplicate groups names by their cleaned form. It returns the distinct
// cleaned names sorted in byte order together with the grouping. Every
// input name lands in exactly one bucket.
func Deduplicate(names []string) ([]string, *Groups) {
	g := &Groups{buckets: make(map[string][]string)}
	for _, raw := range names {
		key := Clean(raw)
		if _, ok := g.buckets[key]; !ok {
			g.order = append(g.order, key)
		}
		g.buckets[key] = append(g.buckets[key], raw)
	}

	unique := g.Keys()
	sort.Strings(unique)
	return unique, g
}
