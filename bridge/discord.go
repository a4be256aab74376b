package bridge

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// writeCommandName is the slash command used to speak towards IRC.
const writeCommandName = "write"

type discordBot struct {
	*discordgo.Session
	bridge *Bridge
}

func newDiscord(dib *Bridge, botToken string) (*discordBot, error) {
	// Create a new Discord session using the provided bot token.
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, errors.Wrap(err, "could not create discord session")
	}

	session.Identify.Intents = discordgo.IntentsGuilds

	discord := &discordBot{session, dib}

	// These events are all fired in separate goroutines
	discord.AddHandler(discord.onReady)
	discord.AddHandler(discord.onInteractionCreate)

	return discord, nil
}

func (d *discordBot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Infoln("Discord connection ready")

	cmd := &discordgo.ApplicationCommand{
		Name:        writeCommandName,
		Description: "Send a message to the bridged IRC channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "msg",
				Description: "Message",
				Required:    true,
			},
		},
	}

	if _, err := s.ApplicationCommandCreate(r.User.ID, d.bridge.Config.GuildID, cmd); err != nil {
		log.WithField("error", err).Errorln("could not register write command")
	}

	log.Infoln("Starting IRC connection...")
	d.bridge.startSession()
}

func (d *discordBot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	if data.Name != writeCommandName {
		return
	}

	msg := data.Options[0].StringValue()

	// Echo the message back so the invoker sees it posted.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
	if err != nil {
		log.WithField("error", err).Errorln("could not respond to write command")
		return
	}

	if err := d.bridge.submitMessage(i.ChannelID, msg); err != nil {
		log.WithField("error", err).Warnln("could not enqueue message for irc")

		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: "Could not relay to IRC: " + err.Error(),
			Flags:   discordgo.MessageFlagsEphemeral,
		}); err != nil {
			log.WithField("error", err).Errorln("could not send error followup")
		}
	}
}
