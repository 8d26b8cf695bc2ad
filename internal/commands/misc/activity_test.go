package misc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityChoicesSorted(t *testing.T) {
	choices := activityChoices()
	require.Len(t, choices, 5)

	names := make([]string, len(choices))
	for i, c := range choices {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"betrayal", "chess", "fishing", "poker", "youtube"}, names)
}
