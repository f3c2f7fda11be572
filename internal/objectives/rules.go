// Package objectives derives rewrite objectives from failure classifications
// using an externally maintained rule table.
package objectives

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/voxlab/promptforge/internal/domain"
)

// GeneralKey selects the fallback objectives when no failure code matches.
const GeneralKey = "general"

// DefaultObjective is used when the rule table has no general entry either.
const DefaultObjective = "Improve customer experience and clarity"

// Rules maps a failure-reason code to the objectives a rewrite should
// satisfy. Loaded once at startup and treated as read-only.
type Rules map[string][]string

// Load reads the rule table from a JSON file. A missing file is not an
// error; it yields an empty table that falls back to the default objective.
func Load(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Rules{}, nil
		}
		return nil, fmt.Errorf("read objective rules: %w", err)
	}
	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse objective rules: %w", err)
	}
	return rules, nil
}

// Derive collects the objectives for a batch of failure codes, deduplicated
// in first-seen order. Codes outside the known enumeration contribute
// nothing; an empty harvest falls back to the general entry.
func (r Rules) Derive(codes []string) []string {
	var collected []string
	for _, code := range codes {
		reason, ok := domain.ParseFailureReason(code)
		if !ok {
			continue
		}
		collected = append(collected, r[string(reason)]...)
	}
	if len(collected) == 0 {
		collected = r[GeneralKey]
		if len(collected) == 0 {
			collected = []string{DefaultObjective}
		}
	}

	seen := make(map[string]struct{}, len(collected))
	deduped := make([]string, 0, len(collected))
	for _, item := range collected {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		deduped = append(deduped, item)
	}
	return deduped
}
