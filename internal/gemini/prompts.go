package gemini

import (
	"fmt"
	"strings"
)

// DefaultSystemInstruction establishes the assistant persona used for post
// drafting. It can be overridden through gemini.instruction in the config.
const DefaultSystemInstruction = "You are a senior copywriter specializing in crafting engaging social media content. Keep each draft concise, in the author's voice, and ready to publish."

// postPromptTemplate is the user instruction sent with a day's events.
// The %s placeholder receives the joined event texts.
const postPromptTemplate = "Generate creative LinkedIn, Facebook, and Twitter posts based on these events: %s. Write one tailored draft per platform and do not repeat the same phrasing across them."

// BuildPostPrompt renders the user instruction for a day's worth of event
// texts. All event texts are included, joined in submission order.
func BuildPostPrompt(eventTexts []string) string {
	return fmt.Sprintf(postPromptTemplate, strings.Join(eventTexts, ", "))
}
