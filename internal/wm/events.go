package wm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

// EventType names a change event on the subscription stream.
type EventType string

const (
	EventMonitorAdded           EventType = "monitor_added"
	EventMonitorUpdated         EventType = "monitor_updated"
	EventMonitorRemoved         EventType = "monitor_removed"
	EventWorkspaceActivated     EventType = "workspace_activated"
	EventWorkspaceDeactivated   EventType = "workspace_deactivated"
	EventWorkspaceUpdated       EventType = "workspace_updated"
	EventWindowManaged          EventType = "window_managed"
	EventWindowUnmanaged        EventType = "window_unmanaged"
	EventFocusChanged           EventType = "focus_changed"
	EventTilingDirectionChanged EventType = "tiling_direction_changed"
	EventBindingModesChanged    EventType = "binding_modes_changed"
	EventPauseChanged           EventType = "pause_changed"
	EventUserConfigChanged      EventType = "user_config_changed"
	EventApplicationExiting     EventType = "application_exiting"
)

// AllEventTypes lists every event type, in catalogue order.
var AllEventTypes = []EventType{
	EventMonitorAdded,
	EventMonitorUpdated,
	EventMonitorRemoved,
	EventWorkspaceActivated,
	EventWorkspaceDeactivated,
	EventWorkspaceUpdated,
	EventWindowManaged,
	EventWindowUnmanaged,
	EventFocusChanged,
	EventTilingDirectionChanged,
	EventBindingModesChanged,
	EventPauseChanged,
	EventUserConfigChanged,
	EventApplicationExiting,
}

// ParseEventTypes parses a comma-separated list of event names. "all"
// selects every event type.
func ParseEventTypes(list []string) ([]EventType, error) {
	var out []EventType
	seen := make(map[EventType]bool)
	for _, item := range list {
		for _, name := range strings.Split(item, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if name == "all" {
				return append([]EventType(nil), AllEventTypes...), nil
			}
			et := EventType(name)
			if !isKnownEvent(et) {
				return nil, fmt.Errorf("unknown event %q", name)
			}
			if !seen[et] {
				seen[et] = true
				out = append(out, et)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no events given")
	}
	return out, nil
}

func isKnownEvent(et EventType) bool {
	for _, known := range AllEventTypes {
		if known == et {
			return true
		}
	}
	return false
}

// Event is a change notification. Only the fields belonging to Type are
// set.
type Event struct {
	Type EventType `json:"eventType"`

	AddedMonitor   *ContainerDTO `json:"addedMonitor,omitempty"`
	UpdatedMonitor *ContainerDTO `json:"updatedMonitor,omitempty"`

	RemovedID         *uuid.UUID `json:"removedId,omitempty"`
	RemovedDeviceName *string    `json:"removedDeviceName,omitempty"`

	ActivatedWorkspace *ContainerDTO `json:"activatedWorkspace,omitempty"`
	DeactivatedID      *uuid.UUID    `json:"deactivatedId,omitempty"`
	DeactivatedName    *string       `json:"deactivatedName,omitempty"`
	UpdatedWorkspace   *ContainerDTO `json:"updatedWorkspace,omitempty"`

	ManagedWindow   *ContainerDTO      `json:"managedWindow,omitempty"`
	UnmanagedID     *uuid.UUID         `json:"unmanagedId,omitempty"`
	UnmanagedHandle *platform.WindowID `json:"unmanagedHandle,omitempty"`

	FocusedContainer *ContainerDTO `json:"focusedContainer,omitempty"`

	NewTilingDirection *container.Direction `json:"newTilingDirection,omitempty"`
	DirectionContainer *ContainerDTO        `json:"directionContainer,omitempty"`

	// NewBindingModes is a pointer so an empty list is still sent.
	NewBindingModes *[]config.BindingModeConfig `json:"newBindingModes,omitempty"`

	IsPaused *bool `json:"isPaused,omitempty"`
}

func monitorAdded(dto ContainerDTO) Event {
	return Event{Type: EventMonitorAdded, AddedMonitor: &dto}
}

func monitorUpdated(dto ContainerDTO) Event {
	return Event{Type: EventMonitorUpdated, UpdatedMonitor: &dto}
}

func monitorRemoved(id uuid.UUID, deviceName string) Event {
	return Event{Type: EventMonitorRemoved, RemovedID: &id, RemovedDeviceName: &deviceName}
}

func workspaceActivated(dto ContainerDTO) Event {
	return Event{Type: EventWorkspaceActivated, ActivatedWorkspace: &dto}
}

func workspaceDeactivated(id uuid.UUID, name string) Event {
	return Event{Type: EventWorkspaceDeactivated, DeactivatedID: &id, DeactivatedName: &name}
}

func workspaceUpdated(dto ContainerDTO) Event {
	return Event{Type: EventWorkspaceUpdated, UpdatedWorkspace: &dto}
}

func windowManaged(dto ContainerDTO) Event {
	return Event{Type: EventWindowManaged, ManagedWindow: &dto}
}

func windowUnmanaged(id uuid.UUID, handle platform.WindowID) Event {
	return Event{Type: EventWindowUnmanaged, UnmanagedID: &id, UnmanagedHandle: &handle}
}

func focusChanged(dto ContainerDTO) Event {
	return Event{Type: EventFocusChanged, FocusedContainer: &dto}
}

func tilingDirectionChanged(direction container.Direction, dto ContainerDTO) Event {
	return Event{Type: EventTilingDirectionChanged, NewTilingDirection: &direction, DirectionContainer: &dto}
}

func bindingModesChanged(modes []config.BindingModeConfig) Event {
	active := append([]config.BindingModeConfig{}, modes...)
	return Event{Type: EventBindingModesChanged, NewBindingModes: &active}
}

func pauseChanged(paused bool) Event {
	return Event{Type: EventPauseChanged, IsPaused: &paused}
}

// UserConfigChanged is emitted after a config reload has been applied.
func UserConfigChanged() Event {
	return Event{Type: EventUserConfigChanged}
}

// ApplicationExiting is emitted once when the daemon begins shutdown.
func ApplicationExiting() Event {
	return Event{Type: EventApplicationExiting}
}
