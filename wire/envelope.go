// Package wire implements the language-neutral WebSocket envelope and
// error-code taxonomy spec §6 defines for SubjectUpdate exchange: a
// three-element [message-type, sequence, payload] array, the five message
// kinds (Hello/Welcome/Update/Error/Heartbeat), and the wire error codes a
// connector surfaces to the far side. It is grounded on the teacher's
// Parser/DSL encode-decode contract (types.Parser, engine/parser.go) the
// same way package update's SubjectUpdate tree is, narrowed here to the
// transport envelope rather than the diff tree itself.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/update"
)

// MessageType discriminates the five envelope kinds spec §6 names.
type MessageType int

const (
	Hello     MessageType = 0
	Welcome   MessageType = 1
	Update    MessageType = 2
	Error     MessageType = 3
	Heartbeat MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case Hello:
		return "Hello"
	case Welcome:
		return "Welcome"
	case Update:
		return "Update"
	case Error:
		return "Error"
	case Heartbeat:
		return "Heartbeat"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}

// ErrorCode enumerates the wire error codes spec §6 names. "others
// reserved" per the spec — ErrorCode is a plain string so a connector may
// carry a forward-compatible code this module doesn't yet define.
type ErrorCode string

const (
	ValidationFailed ErrorCode = "ValidationFailed"
	ReadOnlyProperty ErrorCode = "ReadOnlyProperty"
	PropertyNotFound ErrorCode = "PropertyNotFound"
	SubjectNotFound  ErrorCode = "SubjectNotFound"
	InternalError    ErrorCode = "InternalError"
)

// CodeFor maps an error from the subject engine to the wire code a
// connector reports for it: validation rejections, read-only writes, and
// unresolved paths each have a named code, anything else is
// InternalError.
func CodeFor(err error) ErrorCode {
	var validation *ierrors.ValidationError
	if errors.As(err, &validation) {
		return ValidationFailed
	}
	var readOnly *ierrors.ReadOnlyError
	if errors.As(err, &readOnly) {
		return ReadOnlyProperty
	}
	var notFound *ierrors.NotFoundError
	if errors.As(err, &notFound) {
		return PropertyNotFound
	}
	return InternalError
}

// FailureFor builds the path-scoped Failure entry for err.
func FailureFor(path string, err error) Failure {
	return Failure{Path: path, Code: CodeFor(err), Message: err.Error()}
}

// HelloPayload is the client's opening declaration.
type HelloPayload struct {
	Version int    `json:"version"`
	Format  string `json:"format"`
}

// WelcomePayload carries the server's initial full state and its current
// sequence number.
type WelcomePayload struct {
	State    update.SubjectUpdate `json:"state"`
	Sequence int64                `json:"sequence"`
}

// UpdatePayload carries one incremental SubjectUpdate at a monotonically
// increasing sequence number.
type UpdatePayload struct {
	Delta    update.SubjectUpdate `json:"delta"`
	Sequence int64                `json:"sequence"`
}

// Failure is one path-scoped failure within an ErrorPayload.
type Failure struct {
	Path    string    `json:"path"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorPayload reports a connection- or request-level failure, optionally
// itemized per path.
type ErrorPayload struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Failures []Failure `json:"failures,omitempty"`
}

// HeartbeatPayload carries the server's current sequence number as a
// liveness pulse.
type HeartbeatPayload struct {
	Sequence int64 `json:"sequence"`
}

// Envelope is the decoded form of the three-element wire array. Sequence
// is a pointer because spec §6 marks it nullable. Welcome, Update and
// Heartbeat payloads carry their own Sequence, which their Encode helpers
// also copy into this envelope slot; Hello and Error leave it nil.
type Envelope struct {
	Type     MessageType
	Sequence *int64
	Payload  json.RawMessage
}

// wireArray is the on-wire shape: [type, sequence, payload].
type wireArray [3]json.RawMessage

// Encode builds the three-element JSON array for one message.
func Encode(t MessageType, sequence *int64, payload any) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: encode payload: %w", err)
	}
	seqJSON, err := json.Marshal(sequence)
	if err != nil {
		return nil, fmt.Errorf("wire: encode sequence: %w", err)
	}
	typeJSON, err := json.Marshal(int(t))
	if err != nil {
		return nil, fmt.Errorf("wire: encode type: %w", err)
	}
	arr := []json.RawMessage{typeJSON, seqJSON, payloadJSON}
	return json.Marshal(arr)
}

// Decode parses the three-element wire array into an Envelope. The
// payload is left as raw JSON; call DecodeHello/DecodeWelcome/etc. (or
// json.Unmarshal the Payload field directly) once Type tells you which
// shape to expect.
func Decode(data []byte) (Envelope, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return Envelope{}, fmt.Errorf("wire: decode envelope array: %w", err)
	}
	if len(arr) != 3 {
		return Envelope{}, fmt.Errorf("wire: envelope array must have exactly 3 elements, got %d", len(arr))
	}
	var typeNum int
	if err := json.Unmarshal(arr[0], &typeNum); err != nil {
		return Envelope{}, fmt.Errorf("wire: decode message type: %w", err)
	}
	var seq *int64
	if err := json.Unmarshal(arr[1], &seq); err != nil {
		return Envelope{}, fmt.Errorf("wire: decode sequence: %w", err)
	}
	return Envelope{Type: MessageType(typeNum), Sequence: seq, Payload: arr[2]}, nil
}

// EncodeHello builds a Hello envelope (sequence always nil).
func EncodeHello(p HelloPayload) ([]byte, error) {
	return Encode(Hello, nil, p)
}

// EncodeWelcome builds a Welcome envelope carrying p.Sequence as the
// envelope's own sequence slot.
func EncodeWelcome(p WelcomePayload) ([]byte, error) {
	seq := p.Sequence
	return Encode(Welcome, &seq, p)
}

// EncodeUpdate builds an Update envelope carrying p.Sequence as the
// envelope's own sequence slot.
func EncodeUpdate(p UpdatePayload) ([]byte, error) {
	seq := p.Sequence
	return Encode(Update, &seq, p)
}

// EncodeError builds an Error envelope (sequence always nil).
func EncodeError(p ErrorPayload) ([]byte, error) {
	return Encode(Error, nil, p)
}

// EncodeHeartbeat builds a Heartbeat envelope carrying p.Sequence as the
// envelope's own sequence slot.
func EncodeHeartbeat(p HeartbeatPayload) ([]byte, error) {
	seq := p.Sequence
	return Encode(Heartbeat, &seq, p)
}

// DecodeHello parses e's payload as a HelloPayload.
func DecodeHello(e Envelope) (HelloPayload, error) {
	var p HelloPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// DecodeWelcome parses e's payload as a WelcomePayload.
func DecodeWelcome(e Envelope) (WelcomePayload, error) {
	var p WelcomePayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// DecodeUpdate parses e's payload as an UpdatePayload.
func DecodeUpdate(e Envelope) (UpdatePayload, error) {
	var p UpdatePayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// DecodeError parses e's payload as an ErrorPayload.
func DecodeError(e Envelope) (ErrorPayload, error) {
	var p ErrorPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// DecodeHeartbeat parses e's payload as a HeartbeatPayload.
func DecodeHeartbeat(e Envelope) (HeartbeatPayload, error) {
	var p HeartbeatPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}
