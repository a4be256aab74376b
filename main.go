package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/mvrk-dev/go-irc-bridge/bridge"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func main() {
	config := flag.String("config", "", "Config file to read configuration stuff from")
	debugMode := flag.Bool("debug", false, "Debug mode? (false = use value from settings)")

	flag.Parse()

	if *config == "" {
		log.Fatalln("--config argument is required!")
		return
	}

	viper := viper.New()
	ext := filepath.Ext(*config)
	configName := strings.TrimSuffix(filepath.Base(*config), ext)
	configType := ext[1:]
	configPath := filepath.Dir(*config)
	viper.SetConfigName(configName)
	viper.SetConfigType(configType)
	viper.AddConfigPath(configPath)

	log.WithFields(log.Fields{
		"ConfigName": configName,
		"ConfigType": configType,
		"ConfigPath": configPath,
	}).Infoln("Loading configuration...")

	err := viper.ReadInConfig()
	if err != nil {
		log.Fatalln(errors.Wrap(err, "could not read config"))
	}

	discordBotToken := viper.GetString("discord_token") // Discord Bot User Token
	guildID := viper.GetString("guild_id")              // Guild to bridge
	ircConfig := viper.GetString("irc_config")          // Path to the IRC connection config file
	//
	if !*debugMode {
		*debugMode = viper.GetBool("debug")
	}
	//
	viper.SetDefault("category_name", "irc")
	categoryName := viper.GetString("category_name") // Discord category whose children are bridged
	//
	viper.SetDefault("webhook_label", "irc")
	webhookLabel := viper.GetString("webhook_label") // Name used to recognise our webhooks
	//
	viper.SetDefault("avatar_url", bridge.DefaultAvatarURL)
	avatarURL := viper.GetString("avatar_url") // Avatar template, ${COLOR} is replaced per nick
	//
	viper.SetDefault("queue_capacity", 64)
	queueCapacity := viper.GetInt("queue_capacity") // Backlog for Discord->IRC messages
	//
	ircIgnores := viper.GetStringSlice("irc_ignores") // Nick globs whose messages are not relayed

	if guildID == "" {
		log.Fatalln("guild_id is missing!")
	}

	if ircConfig == "" {
		log.Fatalln("irc_config is missing!")
	}

	SetLogDebug(*debugMode)

	dib, err := bridge.New(&bridge.Config{
		DiscordBotToken: discordBotToken,
		GuildID:         guildID,
		IRCConfigPath:   ircConfig,
		CategoryName:    categoryName,
		WebhookLabel:    webhookLabel,
		AvatarURL:       avatarURL,
		QueueCapacity:   queueCapacity,
		IRCIgnores:      compileIgnores(ircIgnores),
		Debug:           *debugMode,
	})

	if err != nil {
		log.WithField("error", err).Fatalln("Go-IRC-Bridge failed to initialise.")
		return
	}

	// Create new signal receiver
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	// Open the bot
	err = dib.Open()
	if err != nil {
		log.WithField("error", err).Fatalln("Go-IRC-Bridge failed to start.")
		return
	}

	// Inform the user that things are happening!
	log.Infoln("Go-IRC-Bridge is now running. Press Ctrl-C to exit.")

	// Start watching for live changes...
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Println("Configuration file has changed!")

		if debug := viper.GetBool("debug"); *debugMode != debug {
			log.Printf("Debug changed from %+v to %+v", *debugMode, debug)
			*debugMode = debug
			dib.SetDebugMode(debug)
			SetLogDebug(debug)
		}

		ignores := viper.GetStringSlice("irc_ignores")
		if !reflect.DeepEqual(ignores, ircIgnores) {
			log.Println("IRC ignore list updated!")
			dib.SetIRCIgnores(compileIgnores(ignores))
			ircIgnores = ignores
		}
	})

	// Watch for a shutdown signal
	<-sc

	log.Infoln("Shutting down Go-IRC-Bridge...")

	// Cleanly close down the bridge.
	dib.Close()
}

func compileIgnores(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			log.WithField("pattern", pattern).Warnln("Skipping invalid irc_ignores pattern")
			continue
		}
		globs = append(globs, g)
	}
	return globs
}

func SetLogDebug(debug bool) {
	logger := log.StandardLogger()
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}
