package driver

import "fmt"

// ClickCenter left-clicks the middle of the screen.
func ClickCenter(d Driver) error {
	w, h := d.ScreenSize()
	return d.Click(w/2, h/2)
}

// Park moves the pointer to the middle of the screen without clicking.
func Park(d Driver) error {
	w, h := d.ScreenSize()
	return d.Move(w/2, h/2)
}

// BackLevels collapses the tree selection n levels up: focus the window,
// move focus back into the tree and walk up with shift+left.
func BackLevels(d Driver, n int) error {
	if err := ClickCenter(d); err != nil {
		return err
	}
	if err := d.Press("tab", "shift"); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := d.Press("left", "shift"); err != nil {
			return fmt.Errorf("back level %d/%d: %w", i+1, n, err)
		}
	}
	return nil
}
