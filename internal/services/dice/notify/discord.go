package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
)

// ErrInvalidWebhook indicates a webhook URL without an id and token.
var ErrInvalidWebhook = errors.New("invalid discord webhook url")

// Embed colors.
const (
	colorDefault = 0x8a0303
	colorMessy   = 0xd4a017
	colorBestial = 0x3b0000
)

// Discord posts roll summaries to a channel webhook.
type Discord struct {
	session   *discordgo.Session
	webhookID string
	token     string
	username  string
}

// NewDiscord parses a webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>.
func NewDiscord(webhookURL, username string) (*Discord, error) {
	webhookID, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	if username == "" {
		username = "bloodroll"
	}
	return &Discord{session: session, webhookID: webhookID, token: token, username: username}, nil
}

// Notify implements effects.Notifier.
func (d *Discord) Notify(ctx context.Context, s effects.Summary) error {
	params := &discordgo.WebhookParams{
		Username: d.username,
		Embeds:   []*discordgo.MessageEmbed{Embed(s)},
	}
	if _, err := d.session.WebhookExecute(d.webhookID, d.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

// Embed renders a summary as a Discord embed.
func Embed(s effects.Summary) *discordgo.MessageEmbed {
	title := s.Character + " rolled " + string(s.Kind)
	if s.Label != "" {
		title = s.Character + " rolled " + s.Label
	}
	color := colorDefault
	switch {
	case s.Bestial:
		color = colorBestial
	case s.Messy:
		color = colorMessy
	}
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: strings.Join(s.Lines, "\n"),
		Color:       color,
	}
	if !s.At.IsZero() {
		embed.Timestamp = s.At.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if s.Headline != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: s.Headline}
	}
	return embed
}

func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", "", ErrInvalidWebhook
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", ErrInvalidWebhook
}
