package bridge

import (
	"sync"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config to be passed to New
type Config struct {
	DiscordBotToken, GuildID string

	// IRCConfigPath points at the config file owned by the IRC
	// connection: server, nick, TLS settings and so on.
	IRCConfigPath string

	// CategoryName is the Discord category whose child channels are
	// bridged. Defaults to "irc".
	CategoryName string

	// WebhookLabel is the name given to webhooks we create, and the
	// sole discriminator used to recognise ours among a channel's
	// existing webhooks. Defaults to "irc".
	WebhookLabel string

	// AvatarURL is the template for relayed senders' avatars, with
	// ${COLOR} standing in for the nick-derived colour.
	AvatarURL string

	// QueueCapacity bounds the Discord->IRC backlog. When the backlog
	// overflows, the oldest unread message is dropped.
	QueueCapacity int

	// IRCIgnores are nick globs whose messages are not relayed.
	IRCIgnores []glob.Glob

	Debug bool
}

// A Bridge connects the channels under one Discord category with their
// same-named IRC channels. One bridge session runs per Discord
// connection: it is started when Discord reports ready and ends when
// the IRC stream does.
type Bridge struct {
	Config *Config

	discord *discordBot
	queue   *Queue

	mu        sync.Mutex
	ignores   []glob.Glob
	irc       *ircListener // active session's connection, nil between sessions
	sessionUp bool
}

// New Bridge
func New(conf *Config) (*Bridge, error) {
	if conf.DiscordBotToken == "" {
		return nil, errors.New("missing discord token")
	}
	if conf.GuildID == "" {
		return nil, errors.New("missing guild id")
	}
	if conf.CategoryName == "" {
		conf.CategoryName = "irc"
	}
	if conf.WebhookLabel == "" {
		conf.WebhookLabel = "irc"
	}
	if conf.AvatarURL == "" {
		conf.AvatarURL = DefaultAvatarURL
	}

	dib := &Bridge{
		Config:  conf,
		queue:   NewQueue(conf.QueueCapacity),
		ignores: conf.IRCIgnores,
	}

	var err error
	dib.discord, err = newDiscord(dib, conf.DiscordBotToken)
	if err != nil {
		return nil, errors.Wrap(err, "could not create discord bot")
	}

	return dib, nil
}

// Open the Discord connection. The bridge session itself starts once
// Discord reports ready.
func (b *Bridge) Open() error {
	if err := b.discord.Open(); err != nil {
		return errors.Wrap(err, "can't open discord")
	}
	return nil
}

// Close the Bridge
func (b *Bridge) Close() {
	b.mu.Lock()
	irc := b.irc
	b.mu.Unlock()

	if irc != nil {
		irc.Quit()
	}

	if err := b.discord.Close(); err != nil {
		log.WithField("error", err).Warnln("could not close discord cleanly")
	}
}

// SetDebugMode allows you to control debug logging.
func (b *Bridge) SetDebugMode(debug bool) {
	b.Config.Debug = debug

	b.mu.Lock()
	irc := b.irc
	b.mu.Unlock()

	if irc != nil {
		irc.SetDebugMode(debug)
	}
}

// SetIRCIgnores replaces the nick ignore list. Takes effect
// immediately, including for the running session.
func (b *Bridge) SetIRCIgnores(globs []glob.Glob) {
	b.mu.Lock()
	b.ignores = globs
	b.mu.Unlock()
}

func (b *Bridge) isIgnoredNick(nick string) bool {
	b.mu.Lock()
	ignores := b.ignores
	b.mu.Unlock()

	for _, ignore := range ignores {
		if ignore.Match(nick) {
			return true
		}
	}
	return false
}

// submitMessage is the write command's entry point: the message is
// enqueued for the session loop to relay. Fails when no session is
// consuming, which the command surfaces to the invoker.
func (b *Bridge) submitMessage(channelID, body string) error {
	return b.queue.Publish(BridgeMessage{
		ChannelID: channelID,
		Body:      body,
	})
}

// startSession spawns the bridge session, unless one is already
// running (Discord fires ready again on every reconnect).
func (b *Bridge) startSession() {
	b.mu.Lock()
	if b.sessionUp {
		b.mu.Unlock()
		log.Debugln("Bridge session already running, ignoring ready")
		return
	}
	b.sessionUp = true
	b.mu.Unlock()

	go func() {
		err := b.runSession()

		b.mu.Lock()
		b.sessionUp = false
		b.irc = nil
		b.mu.Unlock()

		if err != nil {
			log.WithField("error", err).Errorln("listen loop errored")
		} else {
			log.Infoln("listen loop exited")
		}
	}()
}

// runSession builds the session state and runs the relay loop until
// the IRC stream ends. Any failure while building aborts the whole
// startup; no partial bridge is left running.
func (b *Bridge) runSession() error {
	mapping, err := resolveMapping(b.discord.Session, b.Config.GuildID, b.Config.CategoryName)
	if err != nil {
		return errors.Wrap(err, "could not resolve channel mapping")
	}
	log.WithField("channels", mapping.Len()).Infoln("Resolved bridged channels")

	hooks, err := provisionWebhooks(b.discord.Session, mapping, b.Config.WebhookLabel)
	if err != nil {
		return errors.Wrap(err, "could not provision webhooks")
	}

	irc, err := newIRCListener(b.Config.IRCConfigPath, mapping.Names(), b.Config.Debug)
	if err != nil {
		return err
	}

	if err := irc.Connect(); err != nil {
		return err
	}

	b.mu.Lock()
	b.irc = irc
	b.mu.Unlock()

	messages := b.queue.Attach()
	defer b.queue.Detach()

	s := &session{
		mapping:        mapping,
		hooks:          hooks,
		discord:        b.discord.Session,
		irc:            irc,
		avatarTemplate: b.Config.AvatarURL,
		isIgnored:      b.isIgnoredNick,
	}
	s.run(irc.events, messages)

	return nil
}
