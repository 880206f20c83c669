package wm

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/container"
)

// Monitors returns every monitor with its subtree, in sorted order.
func Monitors(s *State) []ContainerDTO {
	monitors := s.Tree.Monitors()
	out := make([]ContainerDTO, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, ToDTO(s.Tree, m))
	}
	return out
}

// Workspaces returns every active workspace with its subtree.
func Workspaces(s *State) []ContainerDTO {
	workspaces := s.Tree.Workspaces()
	out := make([]ContainerDTO, 0, len(workspaces))
	for _, ws := range workspaces {
		out = append(out, ToDTO(s.Tree, ws))
	}
	return out
}

// Windows returns every managed window.
func Windows(s *State) []ContainerDTO {
	windows := s.Tree.Windows(s.Tree.Root())
	out := make([]ContainerDTO, 0, len(windows))
	for _, w := range windows {
		out = append(out, ToDTO(s.Tree, w))
	}
	return out
}

// Focused returns the focused container.
func Focused(s *State) (ContainerDTO, error) {
	c, err := ResolveSubject(s, nil)
	if err != nil {
		return ContainerDTO{}, err
	}
	return ToDTO(s.Tree, c), nil
}

// TilingDirection returns the tiling direction that applies to c.
func TilingDirection(s *State, c container.Container) (container.Direction, ContainerDTO, error) {
	direction, dc, err := TilingDirectionOf(s, c)
	if err != nil {
		return direction, ContainerDTO{}, fmt.Errorf("query tiling direction: %w", err)
	}
	return direction, ToDTO(s.Tree, dc), nil
}
