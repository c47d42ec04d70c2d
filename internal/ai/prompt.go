package ai

import "fmt"

const systemPrompt = "You are a social media content writer. Write a single engaging post. Do not include hashtags unless asked. Respond with the post text only."

func userPrompt(topic, tone string) string {
	return fmt.Sprintf("Write a %s social media post about: %s", tone, topic)
}
