package mockdata

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
)

// WriteJSONLines writes one encoded observation per line.
func WriteJSONLines(w io.Writer, observations []domain.Observation) error {
	bw := bufio.NewWriter(w)
	for i, o := range observations {
		data, err := domain.EncodeObservation(o)
		if err != nil {
			return fmt.Errorf("observation %d: %w", i, err)
		}
		if _, err := bw.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadJSONLines decodes one observation per non-blank line.
func ReadJSONLines(r io.Reader) ([]domain.Observation, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []domain.Observation
	line := 0
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		o, err := domain.DecodeObservation(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, o)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
