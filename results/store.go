package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/weiihann/iobench/harness"
)

// PersistenceError reports a results file that could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist results to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Load reads a results file. A missing or empty file yields an empty table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewTable(), nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	return t, nil
}

// Read decodes a tab-separated table with a header row.
func Read(r io.Reader) (*Table, error) {
	cr := newReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return NewTable(), nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	t := NewTable()

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(err, "read row")
		}

		rec, err := parseRow(row, index)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, errors.Wrapf(err, "line %d", line)
		}

		t.Append(rec)
	}

	return t, nil
}

// Save replaces the file at path with the full table. The data is written
// to a temporary file in the same directory and renamed into place.
func Save(path string, t *Table) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	tmpName := tmp.Name()

	if err := Write(tmp, t); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return &PersistenceError{Path: path, Err: err}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return &PersistenceError{Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return &PersistenceError{Path: path, Err: err}
	}

	return nil
}

// Write encodes the table as tab-separated values with a header row.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(Columns); err != nil {
		return errors.Wrap(err, "write header")
	}

	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)

		if err := cw.Write([]string{
			r.Backend,
			strconv.FormatInt(r.BytesTransferred, 10),
			strconv.FormatFloat(r.ElapsedTime, 'g', -1, 64),
			string(r.Operation),
		}); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}

	cw.Flush()

	return errors.Wrap(cw.Error(), "flush")
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.ReuseRecord = true

	return cr
}

// columnIndex maps each known column to its position in the header. Unknown
// or missing columns are rejected.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))

	for i, name := range header {
		if !isColumn(name) {
			return nil, errors.Errorf("unknown column %q", name)
		}

		if _, dup := index[name]; dup {
			return nil, errors.Errorf("duplicate column %q", name)
		}

		index[name] = i
	}

	for _, name := range Columns {
		if _, ok := index[name]; !ok {
			return nil, errors.Errorf("missing column %q", name)
		}
	}

	return index, nil
}

func isColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}

	return false
}

func parseRow(row []string, index map[string]int) (harness.RunRecord, error) {
	bytes, err := strconv.ParseInt(row[index[ColBytesTransferred]], 10, 64)
	if err != nil {
		return harness.RunRecord{}, errors.Wrap(err, ColBytesTransferred)
	}

	elapsed, err := strconv.ParseFloat(row[index[ColElapsedTime]], 64)
	if err != nil {
		return harness.RunRecord{}, errors.Wrap(err, ColElapsedTime)
	}

	op, err := harness.ParseOperation(row[index[ColOperation]])
	if err != nil {
		return harness.RunRecord{}, errors.Wrap(err, ColOperation)
	}

	return harness.RunRecord{
		Backend:          row[index[ColBackend]],
		BytesTransferred: bytes,
		ElapsedTime:      elapsed,
		Operation:        op,
	}, nil
}
