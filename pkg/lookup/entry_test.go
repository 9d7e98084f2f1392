package lookup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/beacon/pkg/lookup"
)

func TestEntries(t *testing.T) {
	t.Parallel()

	entries := []lookup.Entry{
		{Name: "Weather", Address: "mem://2"},
		{Name: "Clock", Address: "mem://1"},
	}
	lookup.SortEntries(entries)
	assert.Equal(t, []string{"Clock", "Weather"}, lookup.EntryNames(entries))
	assert.Empty(t, lookup.EntryNames(nil))
}
