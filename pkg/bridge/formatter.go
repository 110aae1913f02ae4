package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"webmoe/pkg/discourse"
)

// Formatter converts one raw event payload into broadcast text.
//
// A formatter must fail loudly when the payload lacks a field it renders;
// the broadcast is user-facing and must never contain blank holes.
type Formatter func(payload json.RawMessage) (string, error)

// Registry is a closed mapping from event name to formatter. Membership is
// the sole test distinguishing handled events from ignored ones. Registries
// are built once at startup and never mutated.
type Registry map[string]Formatter

// Lookup returns the formatter for eventName, if the registry has one.
func (r Registry) Lookup(eventName string) (Formatter, bool) {
	f, ok := r[eventName]
	return f, ok
}

// RegistryFor resolves a vocabulary name from bridge config.
func RegistryFor(events string, forumHost string) (Registry, error) {
	switch events {
	case "posts":
		return Posts(), nil
	case "topics":
		return Topics(forumHost), nil
	default:
		return nil, fmt.Errorf("unknown event vocabulary %q", events)
	}
}

// Posts is the reply-announcement vocabulary: new replies under existing
// topics, plus the connectivity ping.
func Posts() Registry {
	return Registry{
		discourse.EventPostCreated: formatPostCreated,
		discourse.EventPing: func(json.RawMessage) (string, error) {
			return "Pong", nil
		},
	}
}

// Topics is the new-topic-announcement vocabulary, parameterized by the
// forum host used in constructed topic links.
func Topics(forumHost string) Registry {
	return Registry{
		discourse.EventTopicCreated: formatTopicCreated(forumHost),
		discourse.EventPing: func(json.RawMessage) (string, error) {
			return "[webmoe] Pong", nil
		},
	}
}

func formatPostCreated(payload json.RawMessage) (string, error) {
	var event discourse.PostEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return "", fmt.Errorf("decode post_created payload: %w", err)
	}

	post := event.Post
	if post.Username == "" {
		return "", fmt.Errorf("post_created payload missing post.username")
	}
	if post.TopicTitle == "" {
		return "", fmt.Errorf("post_created payload missing post.topic_title")
	}
	if strings.TrimSpace(post.Raw) == "" {
		return "", fmt.Errorf("post_created payload missing post.raw")
	}

	message := fmt.Sprintf("%s posted a new reply under topic %s:\n%s",
		post.Username, post.TopicTitle, post.Raw)

	return strings.TrimSpace(message), nil
}

func formatTopicCreated(forumHost string) Formatter {
	return func(payload json.RawMessage) (string, error) {
		var event discourse.TopicEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return "", fmt.Errorf("decode topic_created payload: %w", err)
		}

		topic := event.Topic
		if topic.Title == "" {
			return "", fmt.Errorf("topic_created payload missing topic.title")
		}
		if topic.CreatedBy.Username == "" {
			return "", fmt.Errorf("topic_created payload missing topic.created_by.username")
		}
		if topic.ID == 0 {
			return "", fmt.Errorf("topic_created payload missing topic.id")
		}

		lines := []string{
			fmt.Sprintf("[webmoe] New topic on %s", forumHost),
			"",
			fmt.Sprintf("Title: %s", topic.Title),
			fmt.Sprintf("Author: %s", topic.CreatedBy.Username),
			fmt.Sprintf("Link: https://%s/t/topic/%d", forumHost, topic.ID),
		}

		return strings.Join(lines, "\n"), nil
	}
}
