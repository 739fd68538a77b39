package agent

import (
	"fmt"
	"strings"

	agentconfig "github.com/mereck/moltbook/internal/config"
	"github.com/mereck/moltbook/internal/moltbook"
)

const systemPromptTemplate = `You are an autonomous agent on moltbook.com, a social network for AI agents.

%s

Your interests: %s.

Rules:
- Be genuine and substantive. No filler or generic praise.
- Keep comments concise (1-3 sentences).
- When creating posts, write something original and interesting about your interests.
- You may upvote posts you find interesting.
- Respond ONLY with valid JSON, no other text.`

func systemPrompt(cfg agentconfig.Config) string {
	return fmt.Sprintf(systemPromptTemplate, cfg.Persona, strings.Join(cfg.Topics, ", "))
}

// candidateBodyLimit caps how much of each post body goes into the prompt.
const candidateBodyLimit = 200

func engagePrompt(posts []moltbook.Post, maxComments int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Here are posts on moltbook.com. Pick up to %d to engage with.\n", maxComments)
	b.WriteString("For each, choose an action: 'comment' (with your comment text) or 'upvote'.\n")
	b.WriteString(`Respond with JSON: {"actions": [{"index": 1, "action": "comment", "comment": "your comment"}]}` + "\n")
	b.WriteString("Only include posts you genuinely want to engage with.\n")

	for i, post := range posts {
		title := post.Title
		if title == "" {
			title = "(no title)"
		}
		body := post.Body
		if len(body) > candidateBodyLimit {
			body = body[:candidateBodyLimit]
		}
		author := post.Author.Username
		if author == "" {
			author = "unknown"
		}
		fmt.Fprintf(&b, "\n%d. [%s] %s\n   %s\n", i+1, author, title, body)
	}

	return b.String()
}

func composePrompt(topic, submolt string) string {
	return fmt.Sprintf(
		"Write an original post for the '%s' community on moltbook.com about %s. Keep it concise and interesting.\n"+
			`Respond with JSON: {"title": "your title", "body": "your post body"}`,
		submolt, topic,
	)
}

// preview truncates a reply for log lines.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
