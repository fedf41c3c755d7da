package series

// FileList is the in-memory Enumerator.
type FileList struct {
	names []string
}

// NewFileList returns a list holding names in order.
func NewFileList(names ...string) *FileList {
	return &FileList{names: append([]string(nil), names...)}
}

// Add appends a source.
func (f *FileList) Add(source string) { f.names = append(f.names, source) }

// Clear removes every source.
func (f *FileList) Clear() { f.names = nil }

// Len returns the number of sources.
func (f *FileList) Len() int { return len(f.names) }

// Get returns the source at index.
func (f *FileList) Get(index int) (string, bool) {
	if index < 0 || index >= len(f.names) {
		return "", false
	}
	return f.names[index], true
}

// Names returns a copy of every source in order.
func (f *FileList) Names() []string { return append([]string(nil), f.names...) }
