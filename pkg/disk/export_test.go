package disk

// SetRemove replaces the function the compactor deletes originals with.
func SetRemove(c *Compactor, remove func(string) error) {
	c.remove = remove
}

// HoldDir marks dir as being compacted until the returned func is called.
func HoldDir(c *Compactor, dir string) func() {
	l := c.dirLock(dir)
	l.Lock()
	return l.Unlock
}
