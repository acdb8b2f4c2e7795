package portal

import (
	"context"
	"fmt"

	"hotbind/keybind"
)

// Handles are the optional native handles of the caller's window: an X11
// window id, or a Wayland wl_surface and wl_display pair.
type Handles struct {
	Window  *uint64
	Display *uint64
}

// SurfaceExporter exports a Wayland surface through xdg-foreign and returns
// the exported handle.
type SurfaceExporter interface {
	Export(ctx context.Context, surface, display uint64) (string, error)
}

// ParentWindow builds the portal parent_window identifier. Missing handles
// give the empty identifier, which portals accept.
func ParentWindow(ctx context.Context, wayland bool, h Handles, exporter SurfaceExporter) (string, error) {
	if !wayland {
		if h.Window == nil {
			return "", nil
		}
		return fmt.Sprintf("x11:%x", *h.Window), nil
	}

	switch {
	case h.Window == nil && h.Display == nil:
		return "", nil
	case h.Window == nil || h.Display == nil:
		return "", fmt.Errorf("%w: wayland window identifier needs both surface and display handles", keybind.ErrPortalSession)
	case exporter == nil:
		return "", nil
	}

	handle, err := exporter.Export(ctx, *h.Window, *h.Display)
	if err != nil {
		return "", fmt.Errorf("%w: exporting wayland surface: %w", keybind.ErrPortalSession, err)
	}
	return "wayland:" + handle, nil
}
