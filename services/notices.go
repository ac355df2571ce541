package services

import (
	"sync"
	"time"
)

// Notice levels
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// maxNotices bounds the queue when nobody drains it
const maxNotices = 50

// Notice is a one-time message shown to the admin
type Notice struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NoticeQueue collects one-time messages until the front end drains them
type NoticeQueue struct {
	mu      sync.Mutex
	notices []Notice
}

// NewNoticeQueue creates an empty queue
func NewNoticeQueue() *NoticeQueue {
	return &NoticeQueue{}
}

// Push appends a notice, dropping the oldest when the queue is full
func (q *NoticeQueue) Push(level, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.notices = append(q.notices, Notice{Level: level, Message: message, CreatedAt: time.Now()})
	if len(q.notices) > maxNotices {
		q.notices = q.notices[len(q.notices)-maxNotices:]
	}
}

// Drain returns every pending notice and empties the queue
func (q *NoticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.notices
	q.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
