package objectives

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsEmptyRules(t *testing.T) {
	rules, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoadParsesRuleTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	content := `{"no_slots": ["offer waitlist"], "general": ["be clear"]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"offer waitlist"}, rules["no_slots"])
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDeriveCollectsAndDeduplicates(t *testing.T) {
	rules := Rules{
		"no_slots":            {"offer waitlist", "apologise"},
		"customer_disengaged": {"apologise", "summarize next steps"},
	}

	got := rules.Derive([]string{"no_slots", "customer_disengaged", "no_slots"})
	assert.Equal(t, []string{"offer waitlist", "apologise", "summarize next steps"}, got)
}

func TestDeriveSkipsUnknownCodes(t *testing.T) {
	rules := Rules{
		"no_slots": {"offer waitlist"},
		"general":  {"be clear"},
	}

	got := rules.Derive([]string{"martian_interference"})
	assert.Equal(t, []string{"be clear"}, got)
}

func TestDeriveFallsBackToDefaultObjective(t *testing.T) {
	got := Rules{}.Derive(nil)
	assert.Equal(t, []string{DefaultObjective}, got)
}
