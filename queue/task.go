package queue

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Class selects the worker fleet a task runs on. Light work shares a
// fleet with coordination tasks; heavy parsing, OCR, and indexing each
// get machines sized for them.
type Class string

const (
	ClassLight Class = "light"
	ClassHeavy Class = "heavy"
	ClassOCR   Class = "ocr"
	ClassIndex Class = "index"
)

// Classes lists every worker class.
var Classes = []Class{ClassLight, ClassHeavy, ClassOCR, ClassIndex}

// Task is one unit of queued work. Handlers are idempotent, so a task
// observed twice is harmless. A non-zero Deadline bounds the handler's
// context; work past it is abandoned and retried.
type Task struct {
	ID        string
	Name      string
	Dataset   string
	Payload   map[string]string
	Attempt   int
	CreatedAt time.Time
	Deadline  time.Time
}

// NewTask creates a task with a fresh ID.
func NewTask(name, dataset string, payload map[string]string) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Name:      name,
		Dataset:   dataset,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Encode serializes a task for the wire.
func (t *Task) Encode() ([]byte, error) {
	return cbor.Marshal(t)
}

// DecodeTask deserializes a task from the wire.
func DecodeTask(data []byte) (*Task, error) {
	var t Task
	if err := cbor.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
