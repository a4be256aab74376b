package bridge

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// discordRelay is the part of discordgo.Session the session loop needs
// to push IRC traffic into Discord.
type discordRelay interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error)
}

// ircSender is the outbound half of the IRC connection.
type ircSender interface {
	Privmsg(target, message string)
}

// A session is one bridge lifetime: from Discord ready to IRC
// disconnect. It exclusively owns its mapping and webhook map, so the
// loop takes no locks on them.
type session struct {
	mapping *Mapping
	hooks   map[string]*discordgo.Webhook

	discord discordRelay
	irc     ircSender

	avatarTemplate string

	// isIgnored reports whether an IRC nick's messages should be
	// dropped. Backed by the bridge's ignore globs, which can change
	// at runtime.
	isIgnored func(nick string) bool
}

// run multiplexes the two inbound event sources until the IRC event
// stream ends. Relay failures within one iteration are logged and do
// not end the session; only losing the IRC connection does.
func (s *session) run(events <-chan ircEvent, messages <-chan BridgeMessage) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// IRC stream is gone; the session is over.
				return
			}
			s.handleIRCEvent(ev)

		case msg := <-messages:
			s.handleBridgeMessage(msg)
		}
	}
}

func (s *session) handleIRCEvent(ev ircEvent) {
	switch ev.kind {
	case ircChatLine:
		s.relayChatLine(ev)
	case ircTopicChange:
		s.relayTopicChange(ev)
	}
}

// relayChatLine posts an IRC chat line into the matching Discord
// channel through its webhook, impersonating the IRC sender. Lines
// from unmapped channels or ignored nicks are dropped.
func (s *session) relayChatLine(ev ircEvent) {
	name := strings.TrimPrefix(ev.channel, "#")

	hook, ok := s.hooks[name]
	if !ok {
		// Channel not bridged.
		return
	}

	if s.isIgnored != nil && s.isIgnored(ev.nick) {
		log.WithField("nick", ev.nick).Debugln("Ignoring message from ignored nick")
		return
	}

	username := ev.nick
	if username == "" {
		username = "null"
	}

	_, err := s.discord.WebhookExecute(hook.ID, hook.Token, true, &discordgo.WebhookParams{
		Username:  username,
		Content:   ev.text,
		AvatarURL: avatarURL(s.avatarTemplate, username),
	})
	if err != nil {
		log.WithFields(log.Fields{
			"error":        err,
			"msg.channel":  ev.channel,
			"msg.username": username,
		}).Errorln("could not transmit message to discord")
		return
	}

	log.Debugf("message received in %s: %s", ev.channel, ev.text)
}

// relayTopicChange mirrors an IRC topic change onto the Discord
// channel. A cleared IRC topic clears the Discord topic too.
func (s *session) relayTopicChange(ev ircEvent) {
	name := strings.TrimPrefix(ev.channel, "#")

	channelID, ok := s.mapping.ChannelID(name)
	if !ok {
		return
	}

	if err := s.setChannelTopic(channelID, ev.text); err != nil {
		log.WithFields(log.Fields{
			"error":   err,
			"channel": ev.channel,
		}).Errorln("could not update discord topic")
	}
}

// setChannelTopic edits a channel topic through a raw PATCH.
// discordgo.ChannelEdit marshals its topic field with omitempty, which
// would turn a topic clear into an empty request body.
func (s *session) setChannelTopic(channelID, topic string) error {
	data := struct {
		Topic string `json:"topic"`
	}{topic}

	_, err := s.discord.RequestWithBucketID("PATCH", discordgo.EndpointChannel(channelID), data, discordgo.EndpointChannel(channelID))
	return err
}

// handleBridgeMessage forwards a Discord-originated message to IRC.
// Messages written outside the bridged category have no mapping entry
// and are dropped; this is what keeps the rest of the guild private.
func (s *session) handleBridgeMessage(msg BridgeMessage) {
	name, ok := s.mapping.Name(msg.ChannelID)
	if !ok {
		return
	}

	log.Debugf("sending %q in #%s", msg.Body, name)
	s.irc.Privmsg("#"+name, msg.Body)
}
