package detection

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// EachLine calls fn for every line of r without its line terminator. Lines
// have no length limit and a final line without a newline is still reported.
func EachLine(r io.Reader, fn func(line string)) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
