package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Monitor represents a physical display
type Monitor struct {
	// Output is the RandR output driving the monitor.
	Output     randr.Output
	Name       string
	HardwareID string
	X          int
	Y          int
	Width      int
	Height     int
	Work       Area
}

// Area is a rectangle in root window coordinates.
type Area struct {
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR, with their work
// areas reduced by dock struts.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		output := crtcInfo.Outputs[0]
		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), output, resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		m := Monitor{
			Output:     output,
			Name:       outputName,
			HardwareID: c.hardwareID(output),
			X:          int(crtcInfo.X),
			Y:          int(crtcInfo.Y),
			Width:      int(crtcInfo.Width),
			Height:     int(crtcInfo.Height),
		}
		m.Work = c.workArea(m)
		monitors = append(monitors, m)
	}

	return monitors, nil
}

// hardwareID identifies the panel from its EDID as manufacturer, product
// code and serial number. It returns "" when the output has no EDID.
func (c *Connection) hardwareID(output randr.Output) string {
	atom, err := xprop.Atm(c.XUtil, "EDID")
	if err != nil {
		return ""
	}
	reply, err := randr.GetOutputProperty(c.XUtil.Conn(), output, atom,
		xproto.GetPropertyTypeAny, 0, 32, false, false).Reply()
	if err != nil {
		return ""
	}
	return ParseEDIDHardwareID(reply.Data)
}

// ParseEDIDHardwareID formats the vendor block of an EDID (bytes 8-15).
func ParseEDIDHardwareID(edid []byte) string {
	if len(edid) < 16 {
		return ""
	}
	vendor := uint16(edid[8])<<8 | uint16(edid[9])
	letters := []byte{
		byte('A' - 1 + (vendor>>10)&0x1f),
		byte('A' - 1 + (vendor>>5)&0x1f),
		byte('A' - 1 + vendor&0x1f),
	}
	for _, l := range letters {
		if l < 'A' || l > 'Z' {
			return ""
		}
	}
	product := uint16(edid[10]) | uint16(edid[11])<<8
	serial := uint32(edid[12]) | uint32(edid[13])<<8 | uint32(edid[14])<<16 | uint32(edid[15])<<24
	return fmt.Sprintf("%s%04X-%08X", letters, product, serial)
}

// workArea returns the part of monitor not covered by docks, falling back
// to _NET_WORKAREA and then to the full monitor.
func (c *Connection) workArea(monitor Monitor) Area {
	full := Area{X: monitor.X, Y: monitor.Y, Width: monitor.Width, Height: monitor.Height}
	if area, ok := applyDockStruts(c, full); ok {
		return area
	}

	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return full
	}
	desktopIndex := 0
	if currentDesktop, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil {
		if int(currentDesktop) < len(workArea) {
			desktopIndex = int(currentDesktop)
		}
	}
	wa := workArea[desktopIndex]

	// Only adjust if work area intersects with our monitor
	x1 := max(full.X, int(wa.X))
	y1 := max(full.Y, int(wa.Y))
	x2 := min(full.X+full.Width, int(wa.X)+int(wa.Width))
	y2 := min(full.Y+full.Height, int(wa.Y)+int(wa.Height))
	if x2 > x1 && y2 > y1 {
		return Area{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	}
	return full
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

func applyDockStruts(c *Connection, monitor Area) (Area, bool) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return monitor, false
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return monitor, false
	}

	var struts dockStruts
	for _, windowID := range clients {
		if !c.isDock(windowID) {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			updateStrutsForMonitor(monitor, rootWidth, rootHeight, sp, &struts)
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			sp := &ewmh.WmStrutPartial{
				Left:         s.Left,
				Right:        s.Right,
				Top:          s.Top,
				Bottom:       s.Bottom,
				LeftStartY:   0,
				LeftEndY:     uint(rootHeight - 1),
				RightStartY:  0,
				RightEndY:    uint(rootHeight - 1),
				TopStartX:    0,
				TopEndX:      uint(rootWidth - 1),
				BottomStartX: 0,
				BottomEndX:   uint(rootWidth - 1),
			}
			updateStrutsForMonitor(monitor, rootWidth, rootHeight, sp, &struts)
		}
	}

	return struts.apply(monitor)
}

func (s dockStruts) apply(monitor Area) (Area, bool) {
	if s.left == 0 && s.right == 0 && s.top == 0 && s.bottom == 0 {
		return monitor, false
	}

	monitor.X += s.left
	monitor.Y += s.top
	monitor.Width -= s.left + s.right
	monitor.Height -= s.top + s.bottom

	if monitor.Width < 1 {
		monitor.Width = 1
	}
	if monitor.Height < 1 {
		monitor.Height = 1
	}
	return monitor, true
}

func updateStrutsForMonitor(monitor Area, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *dockStruts) {
	monX1 := monitor.X
	monY1 := monitor.Y
	monX2 := monitor.X + monitor.Width
	monY2 := monitor.Y + monitor.Height

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		x1 := int(sp.TopStartX)
		x2 := int(sp.TopEndX) + 1
		y1 := 0
		y2 := int(sp.Top)
		if intersects(monX1, monY1, monX2, monY2, x1, y1, x2, y2) {
			acc.top = max(acc.top, intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2).h)
		}
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		x1 := int(sp.BottomStartX)
		x2 := int(sp.BottomEndX) + 1
		y2 := rootHeight
		y1 := rootHeight - int(sp.Bottom)
		if intersects(monX1, monY1, monX2, monY2, x1, y1, x2, y2) {
			acc.bottom = max(acc.bottom, intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2).h)
		}
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		x1 := 0
		x2 := int(sp.Left)
		y1 := int(sp.LeftStartY)
		y2 := int(sp.LeftEndY) + 1
		if intersects(monX1, monY1, monX2, monY2, x1, y1, x2, y2) {
			acc.left = max(acc.left, intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2).w)
		}
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		x2 := rootWidth
		x1 := rootWidth - int(sp.Right)
		y1 := int(sp.RightStartY)
		y2 := int(sp.RightEndY) + 1
		if intersects(monX1, monY1, monX2, monY2, x1, y1, x2, y2) {
			acc.right = max(acc.right, intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2).w)
		}
	}
}

type intersection struct {
	w int
	h int
}

func intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}

func intersects(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) bool {
	isect := intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2)
	return isect.w > 0 && isect.h > 0
}
