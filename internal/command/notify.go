package command

import "github.com/slack-go/slack"

// authorizationPrompt builds the interactive message shown to a user who
// hasn't yet granted us access: a short explanation with a button linking to
// the Slack-hosted consent page
func authorizationPrompt(authorizeUrl string) *slack.WebhookMessage {
	buttonText := slack.NewTextBlockObject(slack.PlainTextType, "Open permissions", true, false)
	button := slack.NewButtonBlockElement("button-action", "give_access", buttonText)
	button.URL = authorizeUrl

	sectionText := slack.NewTextBlockObject(slack.MarkdownType, "You need to allow access to change your profile details", false, false)
	section := slack.NewSectionBlock(sectionText, nil, slack.NewAccessory(button))

	return &slack.WebhookMessage{
		Text: "No access",
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{section},
		},
	}
}
