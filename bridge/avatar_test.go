package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorForIsStable(t *testing.T) {
	assert.Equal(t, colorFor("alice"), colorFor("alice"))
	assert.Equal(t, colorFor("Guest|1234"), colorFor("Guest|1234"))
}

func TestColorForKnownValues(t *testing.T) {
	// CRC-32 (IEEE) of the name, truncated to 24 bits.
	assert.Equal(t, uint32(0x278ebc), colorFor("alice"))
	assert.Equal(t, uint32(0xf5cbb1), colorFor("bob"))
	assert.Equal(t, uint32(0x25cbfc), colorFor("null"))
	assert.Equal(t, uint32(0), colorFor(""))
}

func TestAvatarURL(t *testing.T) {
	assert.Equal(t,
		"https://singlecolorimage.com/get/278ebc/1x1",
		avatarURL(DefaultAvatarURL, "alice"),
	)

	// Colours below 0x100000 keep their leading zero.
	assert.Equal(t,
		"https://singlecolorimage.com/get/0a60bd/1x1",
		avatarURL(DefaultAvatarURL, "qaisjp"),
	)
}
