package handlers

import "unicode"

// Usernames are 3-32 chars, so anything shorter after an @ is ignored.
const minMentionLen = 3

func isMentionChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-'
}

// extractMentions returns the unique usernames referenced as @username in
// content, in order of first appearance. An @ embedded in a word, as in an
// email address, is not treated as a mention.
func extractMentions(content string) []string {
	var mentions []string
	seen := make(map[string]bool)

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '@' {
			continue
		}
		if i > 0 && isMentionChar(runes[i-1]) {
			continue
		}
		j := i + 1
		for j < len(runes) && isMentionChar(runes[j]) {
			j++
		}
		username := string(runes[i+1 : j])
		if len(username) >= minMentionLen && !seen[username] {
			seen[username] = true
			mentions = append(mentions, username)
		}
		i = j - 1
	}
	return mentions
}
