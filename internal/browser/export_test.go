package browser

// Headless reports whether the engine launches Chrome without a window.
func Headless(c *Chrome) bool { return c.headless() }
