package keypress

import (
	"bytes"
	"io"
)

type crlfWriter struct {
	w io.Writer
}

// CRLF returns a writer that expands every "\n" written to w into "\r\n".
// Raw mode disables the terminal's own newline translation.
func CRLF(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return c.w.Write(p)
	}

	out := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
