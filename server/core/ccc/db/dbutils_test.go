package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToString_SortsChronologically(t *testing.T) {
	whole := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sub := whole.Add(100 * time.Millisecond)

	assert.Less(t, TimeToString(whole), TimeToString(sub))
	assert.Less(t, TimeToString(whole.Add(500*time.Millisecond)), TimeToString(whole.Add(550*time.Millisecond)))
	assert.Equal(t, "2026-03-01T10:00:00.000000000Z", TimeToString(whole))

	local := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, TimeToString(whole), TimeToString(local))

	parsed, err := StringToTime(TimeToString(sub))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(sub))
}
