package statsRepo

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoTimezone(t *testing.T) {
	sd, err := time.LoadLocation("America/Santo_Domingo")
	require.NoError(t, err)
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "America/Santo_Domingo", mongoTimezone(at.In(sd)))
	assert.Equal(t, "UTC", mongoTimezone(at))
	assert.Equal(t, "-04:00", mongoTimezone(at.In(time.FixedZone("AST", -4*60*60))))
	assert.Equal(t, "+05:30", mongoTimezone(at.In(time.FixedZone("IST", 330*60))))
}
