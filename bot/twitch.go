package bot

import (
	twitch "github.com/gempir/go-twitch-irc/v4"
)

// twitchTransport adapts gempir's IRC client to the Transport interface. The
// client answers server PINGs itself, so keep-alives never count against the
// outbound message budget.
type twitchTransport struct {
	client *twitch.Client
}

// NewTwitchTransport builds a Transport for Twitch chat. oauth is the bot
// account's token, with or without the "oauth:" prefix gempir expects.
func NewTwitchTransport(username, oauth string) Transport {
	return &twitchTransport{client: twitch.NewClient(username, oauth)}
}

func (t *twitchTransport) Connect() error    { return t.client.Connect() }
func (t *twitchTransport) Disconnect() error { return t.client.Disconnect() }

func (t *twitchTransport) Join(channel string) { t.client.Join(channel) }

func (t *twitchTransport) Say(channel, text string) { t.client.Say(channel, text) }

func (t *twitchTransport) OnMessage(fn func(ChatEvent)) {
	t.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		fn(ChatEvent{
			Channel:    msg.Channel,
			Username:   msg.User.Name,
			Text:       msg.Message,
			ReceivedAt: msg.Time,
		})
	})
}
