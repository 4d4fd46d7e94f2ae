package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/ajitpratap0/colingest/pkg/coerce"
)

// SplitLines reads all of r, header included, and splits every line on ','
// with no coercion. A read error aborts and is returned with the lines read
// so far.
func SplitLines(r io.Reader) ([][]string, error) {
	lr := lineReader{r: bufio.NewReaderSize(r, DefaultBufferSize)}
	var out [][]string
	for {
		raw, err := lr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		line := coerce.TrimLineEnd(string(raw))
		out = append(out, strings.Split(line, ","))
	}
}
