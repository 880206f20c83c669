package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/wm"
)

// DefaultPort is the port the control surface listens on.
const DefaultPort = config.DefaultIPCPort

// MessageType tags every server message.
type MessageType string

const (
	MessageClientResponse    MessageType = "client_response"
	MessageEventSubscription MessageType = "event_subscription"
)

// ClientResponseMessage answers a single client message.
type ClientResponseMessage struct {
	MessageType   MessageType     `json:"messageType"`
	ClientMessage string          `json:"clientMessage"`
	Data          json.RawMessage `json:"data"`
	Error         *string         `json:"error"`
	Success       bool            `json:"success"`
}

// EventSubscriptionMessage carries one event to a subscriber.
type EventSubscriptionMessage struct {
	MessageType    MessageType `json:"messageType"`
	Data           *wm.Event   `json:"data"`
	Error          *string     `json:"error"`
	SubscriptionID uuid.UUID   `json:"subscriptionId"`
	Success        bool        `json:"success"`
}

// AppMetadataData is returned by "query app-metadata".
type AppMetadataData struct {
	Version string `json:"version"`
}

// BindingModesData is returned by "query binding-modes".
type BindingModesData struct {
	BindingModes []config.BindingModeConfig `json:"bindingModes"`
}

// CommandData is returned by "command".
type CommandData struct {
	SubjectContainerID uuid.UUID `json:"subjectContainerId"`
}

// EventSubscribeData is returned by "sub".
type EventSubscribeData struct {
	SubscriptionID uuid.UUID `json:"subscriptionId"`
}

// FocusedData is returned by "query focused".
type FocusedData struct {
	Focused wm.ContainerDTO `json:"focused"`
}

// MonitorsData is returned by "query monitors".
type MonitorsData struct {
	Monitors []wm.ContainerDTO `json:"monitors"`
}

// WorkspacesData is returned by "query workspaces".
type WorkspacesData struct {
	Workspaces []wm.ContainerDTO `json:"workspaces"`
}

// WindowsData is returned by "query windows".
type WindowsData struct {
	Windows []wm.ContainerDTO `json:"windows"`
}

// TilingDirectionData is returned by "query tiling-direction".
type TilingDirectionData struct {
	TilingDirection    container.Direction `json:"tilingDirection"`
	DirectionContainer wm.ContainerDTO     `json:"directionContainer"`
}

// PausedData is returned by "query paused".
type PausedData bool

// NewClientResponse creates a successful response with optional data.
func NewClientResponse(clientMessage string, data any) (*ClientResponseMessage, error) {
	resp := &ClientResponseMessage{
		MessageType:   MessageClientResponse,
		ClientMessage: clientMessage,
		Success:       true,
	}
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		resp.Data = bytes
	}
	return resp, nil
}

// NewErrorResponse creates a failed response carrying err's message.
func NewErrorResponse(clientMessage string, err error) *ClientResponseMessage {
	msg := err.Error()
	return &ClientResponseMessage{
		MessageType:   MessageClientResponse,
		ClientMessage: clientMessage,
		Error:         &msg,
	}
}

// NewEventMessage wraps ev for the subscription with id.
func NewEventMessage(id uuid.UUID, ev wm.Event) *EventSubscriptionMessage {
	return &EventSubscriptionMessage{
		MessageType:    MessageEventSubscription,
		Data:           &ev,
		SubscriptionID: id,
		Success:        true,
	}
}

// DecodeData unmarshals the response data into out.
func (r *ClientResponseMessage) DecodeData(out any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response to %q has no data", r.ClientMessage)
	}
	return json.Unmarshal(r.Data, out)
}

// ErrorMessage returns the error text, or "" on success.
func (r *ClientResponseMessage) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

type envelope struct {
	MessageType MessageType `json:"messageType"`
}
