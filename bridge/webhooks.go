package bridge

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// webhookClient is the part of discordgo.Session the provisioner needs.
type webhookClient interface {
	ChannelWebhooks(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error)
	WebhookCreate(channelID, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error)
}

// provisionWebhooks ensures every bridged channel has exactly one
// webhook named label, creating one only when the channel doesn't
// already carry it. Webhooks with any other name are left untouched.
// The result maps IRC channel names to their webhook. Any listing or
// creation failure aborts the whole batch.
func provisionWebhooks(client webhookClient, mapping *Mapping, label string) (map[string]*discordgo.Webhook, error) {
	hooks := make(map[string]*discordgo.Webhook, mapping.Len())

	for _, name := range mapping.Names() {
		channelID, _ := mapping.ChannelID(name)

		existing, err := client.ChannelWebhooks(channelID)
		if err != nil {
			return nil, errors.Wrapf(err, "could not list webhooks for channel %s", channelID)
		}

		var hook *discordgo.Webhook
		for _, wh := range existing {
			if wh.Name == label {
				hook = wh
				break
			}
		}

		if hook != nil {
			log.WithFields(log.Fields{
				"channel": name,
				"id":      channelID,
			}).Infoln("Found existing webhook")
		} else {
			hook, err = client.WebhookCreate(channelID, label, "")
			if err != nil {
				return nil, errors.Wrapf(err, "could not create webhook for channel %s", channelID)
			}
			log.WithFields(log.Fields{
				"channel": name,
				"id":      channelID,
			}).Infoln("Created webhook")
		}

		hooks[name] = hook
	}

	return hooks, nil
}
