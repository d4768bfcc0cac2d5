package classify

import (
	"fmt"
	"io"
	"strings"
)

// TopicType classifies a Kafka topic by its naming pattern.
type TopicType string

const (
	TopicEvent      TopicType = "event"
	TopicCommand    TopicType = "command"
	TopicQuery      TopicType = "query"
	TopicData       TopicType = "data"
	TopicDeadLetter TopicType = "dead-letter"
)

// ClassifyTopic maps a topic name to a TopicType. Topics with no
// recognized pattern classify as plain data topics.
func ClassifyTopic(topic string) TopicType {
	switch {
	case strings.Contains(topic, "event"):
		return TopicEvent
	case strings.Contains(topic, "command"):
		return TopicCommand
	case strings.Contains(topic, "quer"):
		return TopicQuery
	case strings.HasSuffix(topic, "-dlq"), strings.Contains(topic, "dead-letter"):
		return TopicDeadLetter
	default:
		return TopicData
	}
}

// ExtractTopic pulls the topic name out of "topic:<name>:..." metadata
// strings. ok is false when the string has no second segment.
func ExtractTopic(metadata string) (string, bool) {
	parts := strings.Split(metadata, ":")
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

type kafkaDescriber struct{}

func (kafkaDescriber) Describe(w io.Writer, input string) error {
	topic := input
	if extracted, ok := ExtractTopic(input); ok {
		topic = extracted
	}

	fmt.Fprintf(w, "Kafka Topic Analysis:\n")
	fmt.Fprintf(w, "  Topic: %s\n", topic)
	fmt.Fprintf(w, "  Type: %s\n", ClassifyTopic(topic))
	return nil
}
