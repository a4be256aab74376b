package bridge

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWebhookClient remembers created webhooks so a second provisioning
// round sees the first round's hooks.
type fakeWebhookClient struct {
	hooks   map[string][]*discordgo.Webhook // channel ID -> webhooks
	created int

	listErr   error
	createErr error
}

func newFakeWebhookClient() *fakeWebhookClient {
	return &fakeWebhookClient{hooks: make(map[string][]*discordgo.Webhook)}
}

func (f *fakeWebhookClient) ChannelWebhooks(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.hooks[channelID], nil
}

func (f *fakeWebhookClient) WebhookCreate(channelID, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	wh := &discordgo.Webhook{
		ID:        fmt.Sprintf("wh-%d", f.created),
		ChannelID: channelID,
		Name:      name,
	}
	f.hooks[channelID] = append(f.hooks[channelID], wh)
	return wh, nil
}

func testMapping(pairs map[string]string) *Mapping {
	m := &Mapping{
		idByName: make(map[string]string),
		nameByID: make(map[string]string),
	}
	for name, id := range pairs {
		m.idByName[name] = id
		m.nameByID[id] = name
	}
	return m
}

func TestProvisionCreatesMissingWebhooks(t *testing.T) {
	client := newFakeWebhookClient()
	mapping := testMapping(map[string]string{"general": "100", "random": "101"})

	hooks, err := provisionWebhooks(client, mapping, "irc")
	require.NoError(t, err)

	assert.Len(t, hooks, 2)
	assert.Equal(t, 2, client.created)
	assert.Equal(t, "100", hooks["general"].ChannelID)
	assert.Equal(t, "irc", hooks["general"].Name)
}

func TestProvisionReusesLabelledWebhook(t *testing.T) {
	client := newFakeWebhookClient()
	existing := &discordgo.Webhook{ID: "keep", ChannelID: "100", Name: "irc"}
	client.hooks["100"] = []*discordgo.Webhook{
		{ID: "ignore-me", ChannelID: "100", Name: "someone-elses-hook"},
		existing,
	}
	mapping := testMapping(map[string]string{"general": "100"})

	hooks, err := provisionWebhooks(client, mapping, "irc")
	require.NoError(t, err)

	assert.Equal(t, 0, client.created)
	assert.Equal(t, existing, hooks["general"])
}

func TestProvisionIsIdempotent(t *testing.T) {
	client := newFakeWebhookClient()
	mapping := testMapping(map[string]string{"general": "100"})

	first, err := provisionWebhooks(client, mapping, "irc")
	require.NoError(t, err)
	require.Equal(t, 1, client.created)

	second, err := provisionWebhooks(client, mapping, "irc")
	require.NoError(t, err)

	// The second round reuses the first round's webhook.
	assert.Equal(t, 1, client.created)
	assert.Equal(t, first["general"].ID, second["general"].ID)
}

func TestProvisionAbortsBatchOnError(t *testing.T) {
	client := newFakeWebhookClient()
	client.createErr = errors.New("missing permissions")
	mapping := testMapping(map[string]string{"general": "100", "random": "101"})

	_, err := provisionWebhooks(client, mapping, "irc")
	assert.Error(t, err)

	client = newFakeWebhookClient()
	client.listErr = errors.New("boom")
	_, err = provisionWebhooks(client, mapping, "irc")
	assert.Error(t, err)
}
