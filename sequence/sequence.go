package sequence

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxLineBytes bounds one line of a DEL file.
const MaxLineBytes = 10 * 1024 * 1024

// WeightedSequence is a sequence of fids with the number of times it occurs.
type WeightedSequence struct {
	Items   []int `json:"items"`
	Support int64 `json:"support"`
}

type Reader interface {
	// Read returns the next sequence or io.EOF.
	Read() (WeightedSequence, error)
}

// DelReader reads the delimited format: one sequence per line, fids separated
// by blanks, optionally preceded by "<weight>\t". Blank lines are skipped.
type DelReader struct {
	scanner *bufio.Scanner
	line    int
}

func NewDelReader(r io.Reader) *DelReader {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxLineBytes)
	return &DelReader{scanner: scanner}
}

func (r *DelReader) Read() (WeightedSequence, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		seq, err := ParseDel(text)
		if err != nil {
			return WeightedSequence{}, errors.Wrapf(err, "line %d", r.line)
		}
		return seq, nil
	}
	if err := r.scanner.Err(); err != nil {
		return WeightedSequence{}, err
	}
	return WeightedSequence{}, io.EOF
}

// ParseDel parses one line of the delimited format. A weight followed by a
// tab and no items is an empty sequence.
func ParseDel(line string) (WeightedSequence, error) {
	seq := WeightedSequence{Support: 1}
	if tab := strings.IndexByte(line, '\t'); tab >= 0 {
		weight, err := strconv.ParseInt(strings.TrimSpace(line[:tab]), 10, 64)
		if err != nil || weight < 1 {
			return seq, fmt.Errorf("invalid weight %q", line[:tab])
		}
		seq.Support = weight
		line = line[tab+1:]
	}
	fields := strings.Fields(line)
	seq.Items = make([]int, len(fields))
	for i, field := range fields {
		fid, err := strconv.Atoi(field)
		if err != nil {
			return seq, fmt.Errorf("invalid item %q", field)
		}
		seq.Items[i] = fid
	}
	return seq, nil
}

// FormatDel renders seq in the delimited format read by DelReader. Empty
// sequences always carry their weight so they do not render as blank lines.
func FormatDel(seq WeightedSequence) string {
	var sb strings.Builder
	if seq.Support != 1 || len(seq.Items) == 0 {
		sb.WriteString(strconv.FormatInt(seq.Support, 10))
		sb.WriteByte('\t')
	}
	for i, item := range seq.Items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(item))
	}
	return sb.String()
}

// WriteDel writes all sequences in the delimited format.
func WriteDel(w io.Writer, seqs []WeightedSequence) error {
	bw := bufio.NewWriter(w)
	for _, seq := range seqs {
		if _, err := bw.WriteString(FormatDel(seq)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadAll drains a reader.
func ReadAll(r Reader) ([]WeightedSequence, error) {
	var seqs []WeightedSequence
	for {
		seq, err := r.Read()
		if err == io.EOF {
			return seqs, nil
		}
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
}
