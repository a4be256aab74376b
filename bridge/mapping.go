package bridge

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// channelLister is the part of discordgo.Session the resolver needs.
type channelLister interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
}

// A Mapping is the bidirectional association between Discord channel IDs
// and IRC channel names (the Discord-side display names, without the
// leading "#"). It is built once per bridge session and never mutated
// afterwards; the session goroutine is its only reader.
type Mapping struct {
	idByName map[string]string
	nameByID map[string]string
}

// ChannelID looks up the Discord channel ID for an IRC channel name.
func (m *Mapping) ChannelID(name string) (string, bool) {
	id, ok := m.idByName[name]
	return id, ok
}

// Name looks up the IRC channel name for a Discord channel ID.
func (m *Mapping) Name(channelID string) (string, bool) {
	name, ok := m.nameByID[channelID]
	return name, ok
}

// Names returns the IRC-side names of all bridged channels.
func (m *Mapping) Names() []string {
	names := make([]string, 0, len(m.idByName))
	for name := range m.idByName {
		names = append(names, name)
	}
	return names
}

// Len returns the number of bridged channels.
func (m *Mapping) Len() int {
	return len(m.idByName)
}

// resolveMapping discovers which channels of the guild are bridged:
// every channel whose parent is the category named categoryName. When
// several categories share that name the last one in listing order
// wins. A guild without such a category yields an empty mapping, which
// makes the bridge a no-op rather than an error.
func resolveMapping(lister channelLister, guildID, categoryName string) (*Mapping, error) {
	channels, err := lister.GuildChannels(guildID)
	if err != nil {
		return nil, errors.Wrap(err, "could not list guild channels")
	}

	var category *discordgo.Channel
	for _, c := range channels {
		if c.Type != discordgo.ChannelTypeGuildCategory || c.Name != categoryName {
			continue
		}
		if category != nil {
			log.WithFields(log.Fields{
				"category": categoryName,
				"previous": category.ID,
				"chosen":   c.ID,
			}).Warnln("Multiple bridge categories found, using the last one")
		}
		category = c
	}

	mapping := &Mapping{
		idByName: make(map[string]string),
		nameByID: make(map[string]string),
	}

	if category == nil {
		log.WithField("category", categoryName).Warnln("No bridge category found, nothing will be bridged")
		return mapping, nil
	}

	for _, c := range channels {
		if c.ParentID != category.ID {
			continue
		}
		mapping.idByName[c.Name] = c.ID
		mapping.nameByID[c.ID] = c.Name
	}

	return mapping, nil
}
