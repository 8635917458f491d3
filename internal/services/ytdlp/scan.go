package ytdlp

import (
	"bufio"
	"io"
)

func scanLines(r io.Reader, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	// Metadata dumps can exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
}
