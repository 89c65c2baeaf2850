package bot

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	ErrorReply = "There was an issue sending my response. The error logs might have some clues."

	imageUnavailableReply = "Image generation is not available right now."

	engageSuffix = " For the provided list of statements, provide an insight, or a question, or a concern. Don't ask if further help is needed."
	reactSuffix  = " You are instructed to only respond to my statements using a single emoji, no words."
)

func outOfTokensReply(username string, next, now time.Time) string {
	return fmt.Sprintf("%s is out of image tokens. Please wait until %s (%s) before trying again.",
		username, next.UTC().Format("15:04:05 MST"), humanize.RelTime(next, now, "ago", "from now"))
}

func imageCaption(prompt, username string, remaining int, next time.Time, now time.Time, url string) string {
	caption := fmt.Sprintf("%s\nGenerated by: %s", prompt, username)
	if remaining > 0 {
		caption += fmt.Sprintf("\nTokens remaining: %d", remaining)
	} else if !next.IsZero() {
		caption += fmt.Sprintf("\nNext token available: %s", humanize.RelTime(next, now, "ago", "from now"))
	}
	if url != "" {
		caption += "\n" + url
	}
	return caption
}
