// Package parser turns line-delimited city records into models.Row values.
//
// Three interchangeable strategies exist, selected by Strategy:
//
//	schema  encoding/csv reader with declared-schema validation (may reject rows)
//	split   decoded text lines split on ',' by position
//	bytes   raw byte lines split on ',' without text decoding
//
// All strategies apply the coerce package to every field, so for well-formed
// input they produce identical rows.
package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/models"
)

// Strategy names a row parser variant.
type Strategy string

const (
	StrategySchema Strategy = "schema"
	StrategySplit  Strategy = "split"
	StrategyBytes  Strategy = "bytes"
)

// DefaultBufferSize is the read buffer used by the line-based strategies.
const DefaultBufferSize = 64 * 1024

// Strategies returns every supported strategy in a stable order.
func Strategies() []Strategy {
	return []Strategy{StrategySchema, StrategySplit, StrategyBytes}
}

// ParseStrategy converts a configuration value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategySchema, StrategySplit, StrategyBytes:
		return st, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown parser strategy %q", s).
			WithDetail("valid", Strategies())
	}
}

func (s Strategy) String() string { return string(s) }

// RowParser yields one Row per input unit.
//
// Next returns io.EOF at the end of input. Any other error is a *errors.Error
// of type ErrorTypeRead (the unit could not be read and is skipped) or
// ErrorTypeStructure (the unit was read but rejected). Both are recoverable:
// the caller may keep calling Next.
type RowParser interface {
	Next() (models.Row, error)
	Strategy() Strategy
}

// Options configures New.
type Options struct {
	// Schema is the declared record shape checked by StrategySchema.
	// Zero value means models.CitySchema().
	Schema models.Schema

	// BufferSize of the underlying bufio.Reader. Zero means DefaultBufferSize.
	BufferSize int
}

func (o Options) withDefaults() Options {
	if len(o.Schema.Fields) == 0 {
		o.Schema = models.CitySchema()
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	return o
}

// New builds the parser for strategy s reading from r. If r is already a
// *bufio.Reader of sufficient size it is used directly, which lets a caller
// consume a header line before handing the reader over.
func New(s Strategy, r io.Reader, opts Options) (RowParser, error) {
	opts = opts.withDefaults()
	if len(opts.Schema.Fields) != models.NumColumns {
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"schema %q declares %d fields, city records have %d",
			opts.Schema.Name, len(opts.Schema.Fields), models.NumColumns)
	}

	br := bufio.NewReaderSize(r, opts.BufferSize)
	switch s {
	case StrategySchema:
		return newSchemaParser(br, opts.Schema), nil
	case StrategySplit:
		return &splitParser{lines: lineReader{r: br}}, nil
	case StrategyBytes:
		return &bytesParser{lines: lineReader{r: br}}, nil
	default:
		_, err := ParseStrategy(string(s))
		return nil, err
	}
}

// lineReader yields newline-terminated units from a buffered reader. After a
// transport error that left a partial line behind, the rest of that line is
// discarded so the next unit starts on a line boundary.
type lineReader struct {
	r       *bufio.Reader
	scratch []byte
	resync  bool
}

// next returns the next line including its terminator. The slice is only
// valid until the following call.
func (lr *lineReader) next() ([]byte, error) {
	for {
		line, err := lr.readSlice()
		switch {
		case err == io.EOF:
			if len(line) == 0 || lr.resync {
				lr.resync = false
				return nil, io.EOF
			}
			return line, nil
		case err != nil:
			lr.resync = lr.resync || len(line) > 0
			return nil, errors.Wrap(err, errors.ErrorTypeRead, "read line")
		case lr.resync:
			lr.resync = false
			continue
		}
		return line, nil
	}
}

func (lr *lineReader) readSlice() ([]byte, error) {
	line, err := lr.r.ReadSlice('\n')
	if err != bufio.ErrBufferFull {
		return line, err
	}
	lr.scratch = append(lr.scratch[:0], line...)
	for err == bufio.ErrBufferFull {
		line, err = lr.r.ReadSlice('\n')
		lr.scratch = append(lr.scratch, line...)
	}
	return lr.scratch, err
}

// SkipLine reads and discards one line from r. It reports io.EOF when r is
// already exhausted.
func SkipLine(r *bufio.Reader) error {
	lr := lineReader{r: r}
	_, err := lr.next()
	return err
}
