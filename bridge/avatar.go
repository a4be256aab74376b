package bridge

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// DefaultAvatarURL is the avatar template used when the config does not
// provide one. ${COLOR} is replaced with a six digit hex colour derived
// from the sender's nick.
const DefaultAvatarURL = "https://singlecolorimage.com/get/${COLOR}/1x1"

// colorFor derives a stable 24-bit colour from a name.
// The same name always yields the same colour.
func colorFor(name string) uint32 {
	return crc32.ChecksumIEEE([]byte(name)) >> 8
}

// avatarURL expands the avatar template for the given nick.
func avatarURL(template, nick string) string {
	return strings.ReplaceAll(template, "${COLOR}", fmt.Sprintf("%06x", colorFor(nick)))
}
