package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/todolist/apiserver/types"
)

// Event names carried in the message attributes and payload.
const (
	TodoCreated = "todo.created"
	TodoUpdated = "todo.updated"
	TodoDeleted = "todo.deleted"
)

// TodoEvent is the payload published after a todo mutation commits.
type TodoEvent struct {
	Event      string    `json:"event"`
	TodoID     int       `json:"todo_id"`
	UserID     int       `json:"user_id"`
	Task       string    `json:"task,omitempty"`
	Done       bool      `json:"done"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Backend defines the broker-agnostic publish operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher emits todo change events to a fixed channel on a backend.
type Publisher struct {
	backend Backend
	channel string
}

// NewPublisher constructs a Publisher for the provided backend and channel.
func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// PublishTodo emits an event for the given todo.
func (p *Publisher) PublishTodo(ctx context.Context, event string, todo types.Todo) error {
	payload := TodoEvent{
		Event:      event,
		TodoID:     todo.ID,
		UserID:     todo.UserID,
		Task:       todo.Task,
		Done:       todo.Done,
		OccurredAt: time.Now(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = p.backend.Publish(ctx, p.channel, data, map[string]string{"event": event})
	return err
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
