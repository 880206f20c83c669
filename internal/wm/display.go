package wm

import (
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

// HandleDisplaySettingsChanged reconciles monitor containers with the
// monitors currently connected.
func HandleDisplaySettingsChanged(s *State, cfg *config.Config) error {
	s.logger.Info("display settings changed")

	natives, err := s.backend.SortedMonitors()
	if err != nil {
		return err
	}

	pending := s.Tree.Monitors()
	var unmatched []platform.NativeMonitor
	for _, native := range natives {
		i := matchMonitor(pending, native, natives)
		if i < 0 {
			unmatched = append(unmatched, native)
			continue
		}
		m := pending[i]
		pending = append(pending[:i:i], pending[i+1:]...)
		UpdateMonitor(s, m, native)
	}

	// Leftover containers are reused before new ones are created. Which
	// leftover a native monitor lands on is pool order, not a best fit.
	var added []*container.Monitor
	for _, native := range unmatched {
		if len(pending) > 0 {
			m := pending[0]
			pending = pending[1:]
			UpdateMonitor(s, m, native)
			continue
		}
		m, err := AddMonitor(s, native)
		if err != nil {
			return err
		}
		added = append(added, m)
	}

	for _, m := range pending {
		if len(s.Tree.Monitors()) == 1 {
			s.logger.Warn("keeping last monitor although it is disconnected", "monitor", m.ID(), "device", m.Native.DeviceName)
			continue
		}
		if err := RemoveMonitor(s, m, cfg); err != nil {
			return err
		}
	}

	// Binding uses monitor indexes, so sort first.
	SortMonitors(s)
	for _, m := range added {
		if err := BindWorkspacesToMonitor(s, m, cfg); err != nil {
			return err
		}
	}

	for _, w := range s.Tree.Windows(s.Tree.Root()) {
		data := w.Window()
		data.PendingDPIAdjustment = true

		ws := s.Tree.Workspace(w)
		if ws == nil {
			continue
		}
		rect, err := WorkspaceRect(s, ws, cfg)
		if err != nil {
			continue
		}

		// A display event may come from an unrelated device change, so a
		// placement the user chose is kept while it is still visible.
		placement := data.FloatingPlacement
		keep := data.HasCustomFloatingPlacement && placement.HasOverlapX(rect) && placement.HasOverlapY(rect)
		if !keep {
			data.FloatingPlacement = placement.TranslateToCenter(rect)
			if data.State.Kind == container.StateFloating {
				data.State.Placement = data.FloatingPlacement
			}
		}
	}

	s.PendingSync.QueueContainerToRedraw(s.Tree.Root())
	return nil
}

// matchMonitor finds the pending monitor container for native by handle,
// then device path, then hardware ID. Hardware IDs are only trusted when
// no other connected monitor reports the same one.
func matchMonitor(pending []*container.Monitor, native platform.NativeMonitor, connected []platform.NativeMonitor) int {
	for i, m := range pending {
		if m.Native.Handle == native.Handle {
			return i
		}
	}
	if native.DevicePath != "" {
		for i, m := range pending {
			if m.Native.DevicePath == native.DevicePath {
				return i
			}
		}
	}
	if native.HardwareID != "" && hardwareIDCount(connected, native.HardwareID) == 1 {
		for i, m := range pending {
			if m.Native.HardwareID == native.HardwareID {
				return i
			}
		}
	}
	return -1
}

func hardwareIDCount(monitors []platform.NativeMonitor, id string) int {
	n := 0
	for _, m := range monitors {
		if m.HardwareID == id {
			n++
		}
	}
	return n
}
