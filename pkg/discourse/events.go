// Package discourse defines the wire shapes of Discourse webhook payloads.
//
// Only the fields the bridge formatters read are declared; Discourse sends
// many more, and unknown fields are deliberately dropped during decoding.
package discourse

// EventHeader is the request header carrying the webhook event name.
const EventHeader = "x-discourse-event"

// Event names the bridges recognize.
const (
	EventPing         = "ping"
	EventPostCreated  = "post_created"
	EventTopicCreated = "topic_created"
)

// PingEvent is the connectivity-check payload Discourse sends on webhook setup.
type PingEvent struct {
	Ping string `json:"ping"`
}

// PostEvent is the payload of a post_created webhook.
type PostEvent struct {
	Post Post `json:"post"`
}

// Post is the subset of a Discourse post the bridge consumes.
type Post struct {
	ID              int    `json:"id"`
	Username        string `json:"username"`
	DisplayUsername string `json:"display_username"`
	CreatedAt       string `json:"created_at"`
	Raw             string `json:"raw"`
	PostNumber      int    `json:"post_number"`
	TopicID         int    `json:"topic_id"`
	TopicSlug       string `json:"topic_slug"`
	TopicTitle      string `json:"topic_title"`
}

// TopicEvent is the payload of a topic_created webhook.
type TopicEvent struct {
	Topic Topic `json:"topic"`
}

// Topic is the subset of a Discourse topic the bridge consumes.
type Topic struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	CreatedAt string `json:"created_at"`
	CreatedBy Author `json:"created_by"`
}

// Author identifies the user who created a topic.
type Author struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}
