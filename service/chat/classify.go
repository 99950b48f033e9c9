package chat

import (
	"strings"

	"ChatRelay/global/config"
	"ChatRelay/module/message/model"
)

// Classify maps a raw message payload onto a stored message type, or
// flags it as a bot command. Precedence: command, then link, then
// image, then plain text.
func Classify(body, image string) (msgType int32, command bool) {
	if strings.HasPrefix(body, config.CommandPrefix) {
		return model.TypeCommand, true
	}
	if hasLink(body) {
		return model.TypeLink, false
	}
	if body == "" && image != "" {
		return model.TypeImage, false
	}
	return model.TypeText, false
}

// hasLink matches URL-scheme prefixes only; a body that merely mentions
// a URL somewhere stays plain text.
func hasLink(body string) bool {
	return strings.HasPrefix(body, "http://") ||
		strings.HasPrefix(body, "https://") ||
		strings.HasPrefix(body, "ftp://")
}
