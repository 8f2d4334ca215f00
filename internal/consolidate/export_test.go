package consolidate

// SetRenameFunc replaces the commit step of in-place rewrites until the
// returned function is called.
func SetRenameFunc(fn func(oldpath, newpath string) error) (restore func()) {
	previous := renameFile
	renameFile = fn
	return func() { renameFile = previous }
}
