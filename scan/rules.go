// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package scan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/woozymasta/pathrules"
)

// ErrInvalidRules means one or more file selection rules are invalid.
var ErrInvalidRules = errors.New("invalid file selection rules")

// DefaultRules select the container files a mods directory normally holds.
func DefaultRules() []pathrules.Rule {
	return []pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: "*.package"},
		{Action: pathrules.ActionInclude, Pattern: "**/*.package"},
	}
}

// fileMatcher holds compiled include/exclude rules for scan candidates.
type fileMatcher struct {
	matcher *pathrules.Matcher
}

// newFileMatcher compiles file selection rules.
func newFileMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*fileMatcher, error) {
	rules = normalizeRules(rules)
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidRules, err)
	}

	return &fileMatcher{matcher: matcher}, nil
}

// normalizeRules slash-normalizes rule patterns and drops empty patterns.
func normalizeRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.Trim(filepath.ToSlash(strings.TrimSpace(rule.Pattern)), "/")
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether the slash-relative path is selected for scanning.
func (m *fileMatcher) Match(rel string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := strings.Trim(filepath.ToSlash(rel), "/")
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}
