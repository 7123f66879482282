package gemini

import (
	"strings"
	"testing"
)

func TestBuildPostPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPostPrompt([]string{"Launched v2", "Hit 1000 users"})

	if !strings.Contains(prompt, "Launched v2, Hit 1000 users") {
		t.Errorf("prompt should join event texts in order: %q", prompt)
	}
	for _, platform := range []string{"LinkedIn", "Facebook", "Twitter"} {
		if !strings.Contains(prompt, platform) {
			t.Errorf("prompt missing platform %q: %q", platform, prompt)
		}
	}
}

func TestBuildPostPrompt_SingleEvent(t *testing.T) {
	t.Parallel()

	prompt := BuildPostPrompt([]string{"quiet day"})
	if !strings.Contains(prompt, "quiet day") {
		t.Errorf("prompt missing event text: %q", prompt)
	}
	if strings.Contains(prompt, ", .") {
		t.Errorf("single event should not leave a dangling separator: %q", prompt)
	}
}
