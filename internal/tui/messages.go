package tui

// RowUpdateMsg sets fields of the row identified by Key, by column header.
// Headers the model does not have are ignored.
type RowUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// WorkDoneMsg is sent once the install run has returned.
type WorkDoneMsg struct{}

// ErrorMsg aborts the display with a fatal error.
type ErrorMsg struct {
	Err error
}
