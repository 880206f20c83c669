package wm

import (
	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

// ContainerDTO is the wire representation of a container and its subtree.
// Fields that do not apply to a container's type are omitted.
type ContainerDTO struct {
	Type     container.Kind `json:"type"`
	ID       uuid.UUID      `json:"id"`
	ParentID *uuid.UUID     `json:"parentId,omitempty"`
	HasFocus bool           `json:"hasFocus"`
	Children []ContainerDTO `json:"children,omitempty"`

	// Monitor.
	Handle     *uint32        `json:"handle,omitempty"`
	DeviceName string         `json:"deviceName,omitempty"`
	DevicePath string         `json:"devicePath,omitempty"`
	HardwareID string         `json:"hardwareId,omitempty"`
	WorkArea   *platform.Rect `json:"workArea,omitempty"`

	// Workspace.
	Name            string               `json:"name,omitempty"`
	DisplayName     string               `json:"displayName,omitempty"`
	IsDisplayed     *bool                `json:"isDisplayed,omitempty"`
	TilingDirection *container.Direction `json:"tilingDirection,omitempty"`

	// Split and windows.
	TilingSize *float64 `json:"tilingSize,omitempty"`

	// Windows.
	NativeHandle      *platform.WindowID     `json:"nativeHandle,omitempty"`
	Title             string                 `json:"title,omitempty"`
	ClassName         string                 `json:"className,omitempty"`
	State             *container.WindowState `json:"state,omitempty"`
	PrevState         *container.WindowState `json:"prevState,omitempty"`
	FloatingPlacement *platform.Rect         `json:"floatingPlacement,omitempty"`
	Bounds            *platform.Rect         `json:"bounds,omitempty"`
}

// ToDTO converts c and its descendants.
func ToDTO(tree *container.Tree, c container.Container) ContainerDTO {
	dto := ContainerDTO{
		Type: c.Kind(),
		ID:   c.ID(),
	}
	if parent := tree.Parent(c); parent != nil {
		id := parent.ID()
		dto.ParentID = &id
	}
	if focused := tree.Focused(); focused != nil && focused.ID() == c.ID() {
		dto.HasFocus = true
	}

	switch v := c.(type) {
	case *container.Monitor:
		handle := uint32(v.Native.Handle)
		bounds, workArea := v.Native.Bounds, v.Native.WorkArea
		dto.Handle = &handle
		dto.DeviceName = v.Native.DeviceName
		dto.DevicePath = v.Native.DevicePath
		dto.HardwareID = v.Native.HardwareID
		dto.Bounds = &bounds
		dto.WorkArea = &workArea
	case *container.Workspace:
		displayed := tree.IsDisplayed(v)
		direction := v.TilingDirection
		dto.Name = v.Name
		dto.DisplayName = v.DisplayName
		dto.IsDisplayed = &displayed
		dto.TilingDirection = &direction
	case *container.Split:
		size := v.TilingSize()
		direction := v.Direction
		dto.TilingSize = &size
		dto.TilingDirection = &direction
	case *container.TilingWindow:
		size := v.TilingSize()
		dto.TilingSize = &size
		fillWindowDTO(&dto, v.Window())
	case *container.NonTilingWindow:
		fillWindowDTO(&dto, v.Window())
	}

	for _, child := range tree.Children(c) {
		dto.Children = append(dto.Children, ToDTO(tree, child))
	}
	return dto
}

func fillWindowDTO(dto *ContainerDTO, data *container.WindowData) {
	handle := data.Native.ID
	state := data.State
	placement := data.FloatingPlacement
	bounds := data.Native.Bounds
	dto.NativeHandle = &handle
	dto.Title = data.Native.Title
	dto.ClassName = data.Native.AppID
	dto.State = &state
	dto.PrevState = data.PrevState
	dto.FloatingPlacement = &placement
	dto.Bounds = &bounds
}
