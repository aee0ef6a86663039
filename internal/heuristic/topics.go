package heuristic

import "strings"

// MaxTopics bounds the topic set of a summary.
const MaxTopics = 8

// TopicKeywords are the subject areas reviewers track across proposals.
var TopicKeywords = []string{
	"compliance", "budget", "timeline", "deliverable", "requirement",
	"objective", "sustainability", "equity", "cybersecurity", "climate",
	"workforce", "education", "infrastructure", "community", "innovation",
}

// Topics returns the keywords present in text, in keyword order, at most
// MaxTopics of them.
func Topics(text string) []string {
	lower := strings.ToLower(text)
	topics := make([]string, 0, MaxTopics)
	for _, kw := range TopicKeywords {
		if strings.Contains(lower, kw) {
			topics = append(topics, kw)
			if len(topics) == MaxTopics {
				break
			}
		}
	}
	return topics
}
