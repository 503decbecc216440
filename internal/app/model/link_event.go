package model

import "time"

// LinkEventType names a link lifecycle transition.
type LinkEventType string

const (
	LinkCreated LinkEventType = "created"
	LinkDeleted LinkEventType = "deleted"
	LinkClicked LinkEventType = "clicked"
)

// LinkEvent is the notification published for every lifecycle transition.
type LinkEvent struct {
	ID        string        `json:"id"`
	Type      LinkEventType `json:"type"`
	Code      string        `json:"code"`
	TargetURL string        `json:"target_url,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Subject returns the NATS subject the event is published on.
func (e LinkEvent) Subject() string {
	return LinkEventSubjectPrefix + string(e.Type)
}

const (
	LinkEventStreamName     = "LINKS"
	LinkEventSubjectPrefix  = "links."
	LinkEventSubjects       = "links.*"
	LinkEventStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
