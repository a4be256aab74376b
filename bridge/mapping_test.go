package bridge

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	channels []*discordgo.Channel
	err      error
}

func (f *fakeLister) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	return f.channels, f.err
}

func category(id, name string) *discordgo.Channel {
	return &discordgo.Channel{ID: id, Name: name, Type: discordgo.ChannelTypeGuildCategory}
}

func textChannel(id, name, parentID string) *discordgo.Channel {
	return &discordgo.Channel{ID: id, Name: name, Type: discordgo.ChannelTypeGuildText, ParentID: parentID}
}

func TestResolveMapping(t *testing.T) {
	lister := &fakeLister{channels: []*discordgo.Channel{
		category("10", "irc"),
		textChannel("100", "general", "10"),
		textChannel("101", "random", "10"),
		category("20", "other"),
		textChannel("200", "offtopic", "20"),
		textChannel("300", "lobby", ""),
	}}

	mapping, err := resolveMapping(lister, "42", "irc")
	require.NoError(t, err)

	assert.Equal(t, 2, mapping.Len())

	id, ok := mapping.ChannelID("general")
	assert.True(t, ok)
	assert.Equal(t, "100", id)

	name, ok := mapping.Name("101")
	assert.True(t, ok)
	assert.Equal(t, "random", name)

	// Channels outside the category are excluded regardless of name.
	_, ok = mapping.ChannelID("offtopic")
	assert.False(t, ok)
	_, ok = mapping.Name("300")
	assert.False(t, ok)
}

func TestResolveMappingNoCategory(t *testing.T) {
	lister := &fakeLister{channels: []*discordgo.Channel{
		category("20", "other"),
		textChannel("200", "general", "20"),
	}}

	mapping, err := resolveMapping(lister, "42", "irc")
	require.NoError(t, err)
	assert.Equal(t, 0, mapping.Len())
}

func TestResolveMappingCategoryNameIsCaseSensitive(t *testing.T) {
	lister := &fakeLister{channels: []*discordgo.Channel{
		category("10", "IRC"),
		textChannel("100", "general", "10"),
	}}

	mapping, err := resolveMapping(lister, "42", "irc")
	require.NoError(t, err)
	assert.Equal(t, 0, mapping.Len())
}

func TestResolveMappingLastCategoryWins(t *testing.T) {
	lister := &fakeLister{channels: []*discordgo.Channel{
		category("10", "irc"),
		textChannel("100", "general", "10"),
		category("11", "irc"),
		textChannel("110", "dev", "11"),
	}}

	mapping, err := resolveMapping(lister, "42", "irc")
	require.NoError(t, err)

	assert.Equal(t, 1, mapping.Len())
	_, ok := mapping.ChannelID("dev")
	assert.True(t, ok)
	_, ok = mapping.ChannelID("general")
	assert.False(t, ok)
}

func TestResolveMappingListingError(t *testing.T) {
	lister := &fakeLister{err: errors.New("boom")}

	_, err := resolveMapping(lister, "42", "irc")
	assert.Error(t, err)
}
