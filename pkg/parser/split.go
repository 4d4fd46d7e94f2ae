package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ajitpratap0/colingest/pkg/coerce"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/models"
)

// splitParser decodes every line to text and splits it positionally.
type splitParser struct {
	lines lineReader
}

func (p *splitParser) Strategy() Strategy { return StrategySplit }

func (p *splitParser) Next() (models.Row, error) {
	raw, err := p.lines.next()
	if err != nil {
		return models.Row{}, err
	}
	if !utf8.Valid(raw) {
		return models.Row{}, errors.New(errors.ErrorTypeRead, "line is not valid UTF-8")
	}
	return splitRow(coerce.TrimLineEnd(string(raw))), nil
}

func splitRow(line string) models.Row {
	var f [models.NumColumns]string
	n := 0
	for n < models.NumColumns {
		head, tail, found := strings.Cut(line, ",")
		f[n] = head
		n++
		if !found {
			break
		}
		line = tail
	}

	pop, hasPop := coerce.Population(f[models.ColPopulation], n > models.ColPopulation)
	return models.Row{
		City:          coerce.Text(strings.Clone(f[models.ColCity]), n > models.ColCity),
		State:         coerce.Text(strings.Clone(f[models.ColState]), n > models.ColState),
		Population:    pop,
		HasPopulation: hasPop,
		Latitude:      coerce.Float(f[models.ColLatitude], n > models.ColLatitude),
		Longitude:     coerce.Float(f[models.ColLongitude], n > models.ColLongitude),
	}
}

// bytesParser splits raw lines without decoding them. Text fields are copied
// out of the read buffer, numeric fields are parsed in place.
type bytesParser struct {
	lines lineReader
}

func (p *bytesParser) Strategy() Strategy { return StrategyBytes }

func (p *bytesParser) Next() (models.Row, error) {
	raw, err := p.lines.next()
	if err != nil {
		return models.Row{}, err
	}
	return bytesRow(coerce.TrimLineEndBytes(raw)), nil
}

func bytesRow(line []byte) models.Row {
	var f [models.NumColumns][]byte
	n := 0
	for n < models.NumColumns {
		head, tail, found := bytes.Cut(line, []byte{','})
		f[n] = head
		n++
		if !found {
			break
		}
		line = tail
	}

	pop, hasPop := coerce.PopulationBytes(f[models.ColPopulation], n > models.ColPopulation)
	return models.Row{
		City:          coerce.TextBytes(f[models.ColCity], n > models.ColCity),
		State:         coerce.TextBytes(f[models.ColState], n > models.ColState),
		Population:    pop,
		HasPopulation: hasPop,
		Latitude:      coerce.FloatBytes(f[models.ColLatitude], n > models.ColLatitude),
		Longitude:     coerce.FloatBytes(f[models.ColLongitude], n > models.ColLongitude),
	}
}
