package types

import "time"

// MaxTaskLength bounds the free-text task description.
const MaxTaskLength = 200

// Todo is a task record owned by exactly one user. Only the owner may
// observe or mutate it; rows are removed when the owner is deleted.
type Todo struct {
	// ID is the unique identifier of the todo.
	ID int `json:"id" db:"id"`

	// UserID is the identifier of the owning user. Server-managed; it is
	// stamped from the authenticated principal on creation and never
	// changes afterwards.
	UserID int `json:"-" db:"user_id"`

	// Task is the free-text description, at most MaxTaskLength characters.
	Task string `json:"task" db:"task"`

	// Done indicates whether the task has been completed.
	Done bool `json:"done" db:"done"`

	// Attachment holds object-storage metadata for an optional file
	// attached to this todo. Zero-valued when no attachment exists.
	Attachment Attachment `json:"-" db:"-"`

	// CreatedAt is set once when the todo is created.
	CreatedAt time.Time `json:"-" db:"created_at"`

	// UpdatedAt is refreshed on every mutation.
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// Attachment describes a file stored in object storage for a todo.
type Attachment struct {
	// ObjectKey is the identifier of the file in the object store.
	ObjectKey string `json:"object_key" db:"attachment_key"`

	// Filename is the original name of the uploaded file.
	Filename string `json:"filename" db:"attachment_name"`

	// ContentType is the MIME type recorded at upload time.
	ContentType string `json:"content_type" db:"attachment_content_type"`
}

// HasAttachment reports whether a file is attached to the todo.
func (t Todo) HasAttachment() bool {
	return t.Attachment.ObjectKey != ""
}
