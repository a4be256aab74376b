package bridge

import (
	"crypto/tls"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	irc "github.com/qaisjp/go-ircevent"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// The closed set of IRC events the bridge session cares about. Anything
// the server sends outside this set never reaches the session loop.
type ircEventKind int

const (
	ircChatLine ircEventKind = iota
	ircTopicChange
)

// An ircEvent is one inbound IRC event, already reduced to the fields
// the session loop needs.
type ircEvent struct {
	kind    ircEventKind
	channel string // with leading "#"
	nick    string // sender, chat lines only
	text    string // message body or new topic
}

// ircListener wraps a single IRC connection and translates its
// callbacks into ircEvents on a channel. The channel is closed when the
// connection loop ends, which is how the session learns the stream is
// gone.
type ircListener struct {
	conn   *irc.Connection
	server string

	// channels to join on welcome, with leading "#"
	channels []string

	events chan ircEvent
}

// newIRCListener reads the IRC connection config file and prepares a
// connection that will join the given bridged channel names. The config
// file owns server/nick/TLS details; the bridge owns which channels
// matter.
func newIRCListener(configPath string, names []string, debug bool) (*ircListener, error) {
	v := viper.New()
	ext := filepath.Ext(configPath)
	if ext == "" {
		return nil, errors.Errorf("irc config %s has no file extension", configPath)
	}
	v.SetConfigName(strings.TrimSuffix(filepath.Base(configPath), ext))
	v.SetConfigType(ext[1:])
	v.AddConfigPath(filepath.Dir(configPath))
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "could not read irc config")
	}

	server := v.GetString("server")
	if server == "" {
		return nil, errors.New("irc config is missing server")
	}
	v.SetDefault("nick", "discord")
	nick := v.GetString("nick")

	channels := v.GetStringSlice("channels")
	for _, name := range names {
		channels = append(channels, "#"+name)
	}

	irccon := irc.IRC(nick, "discord")
	irccon.Password = v.GetString("password")
	if v.GetBool("use_tls") {
		irccon.UseTLS = true
		irccon.TLSConfig = &tls.Config{
			InsecureSkipVerify: v.GetBool("insecure"),
		}
	}
	if debug {
		irccon.VerboseCallbackHandler = true
		irccon.Debug = true
	}

	i := &ircListener{
		conn:     irccon,
		server:   server,
		channels: channels,
		events:   make(chan ircEvent, 16),
	}

	// Welcome event
	irccon.AddCallback("001", i.OnWelcome)

	// Called when received channel names... essentially OnJoinChannel
	irccon.AddCallback("366", i.OnJoinChannel)
	irccon.AddCallback("PRIVMSG", i.OnPrivateMessage)
	irccon.AddCallback("CTCP_ACTION", i.OnPrivateMessage)
	irccon.AddCallback("TOPIC", i.OnTopic)
	irccon.AddCallback("332", i.OnTopicReply)

	return i, nil
}

// Connect dials and identifies with the IRC server, then starts the
// read loop. The events channel is closed when the loop ends.
func (i *ircListener) Connect() error {
	if err := i.conn.Connect(i.server); err != nil {
		return errors.Wrap(err, "could not connect to irc")
	}

	go func() {
		i.conn.Loop()
		close(i.events)
	}()

	return nil
}

// Privmsg sends a standard chat line to an IRC target.
func (i *ircListener) Privmsg(target, message string) {
	i.conn.Privmsg(target, message)
}

// Quit disconnects from IRC, ending the connection loop.
func (i *ircListener) Quit() {
	i.conn.Quit()
}

func (i *ircListener) SetDebugMode(debug bool) {
	i.conn.VerboseCallbackHandler = debug
	i.conn.Debug = debug
}

func (i *ircListener) OnWelcome(e *irc.Event) {
	// Join all channels
	i.conn.SendRaw("JOIN " + strings.Join(i.channels, ","))
}

func (i *ircListener) OnJoinChannel(e *irc.Event) {
	log.Infof("Listener has joined IRC channel %s.", e.Arguments[1])
}

func (i *ircListener) OnPrivateMessage(e *irc.Event) {
	// Ignore private messages
	if !strings.HasPrefix(e.Arguments[0], "#") {
		return
	}

	msg := e.Message()
	if e.Code == "CTCP_ACTION" {
		msg = "_" + msg + "_"
	}

	i.events <- ircEvent{
		kind:    ircChatLine,
		channel: e.Arguments[0],
		nick:    e.Nick,
		text:    msg,
	}
}

// OnTopic fires when someone changes a channel topic while we're in it.
// A topic clear arrives with no topic argument.
func (i *ircListener) OnTopic(e *irc.Event) {
	topic := ""
	if len(e.Arguments) > 1 {
		topic = e.Arguments[1]
	}

	i.events <- ircEvent{
		kind:    ircTopicChange,
		channel: e.Arguments[0],
		text:    topic,
	}
}

// OnTopicReply fires on RPL_TOPIC after joining a channel, so freshly
// joined channels sync their topic too.
func (i *ircListener) OnTopicReply(e *irc.Event) {
	i.events <- ircEvent{
		kind:    ircTopicChange,
		channel: e.Arguments[1],
		text:    e.Message(),
	}
}
