package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Format selects the output line layout.
type Format int

const (
	// FormatPlain writes `<label> '<index>|<ns> name:value ...`.
	FormatPlain Format = iota
	// FormatWeighted writes `<label> 1 <index>|<ns> name:value ...`.
	FormatWeighted
	// FormatCSV writes the label followed by the feature values, comma separated.
	FormatCSV
	// FormatTSV is FormatCSV with tabs.
	FormatTSV
)

var formatNames = map[Format]string{
	FormatPlain:    "plain",
	FormatWeighted: "weighted",
	FormatCSV:      "csv",
	FormatTSV:      "tsv",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown format %q (use plain, weighted, csv or tsv)", s)
}

// Delimited reports whether f is CSV or TSV.
func (f Format) Delimited() bool { return f == FormatCSV || f == FormatTSV }

// DefaultNamespace is the key:value namespace marker.
const DefaultNamespace = "f"

// WriterOptions configures a Writer.
type WriterOptions struct {
	Format    Format
	Precision int
	// Namespace defaults to DefaultNamespace.
	Namespace string
	// Header writes a `label,<names...>` line before the first CSV/TSV row.
	// Key:value formats ignore it.
	Header bool
}

// Writer renders rows. Call Flush when done.
type Writer struct {
	bw      *bufio.Writer
	cw      *csv.Writer
	opts    WriterOptions
	written int
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer, opts WriterOptions) *Writer {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	bw := bufio.NewWriter(w)
	wr := &Writer{bw: bw, opts: opts}
	if opts.Format.Delimited() {
		wr.cw = csv.NewWriter(bw)
		if opts.Format == FormatTSV {
			wr.cw.Comma = '\t'
		}
	}
	return wr
}

// WriteHeader writes the header line for delimited formats when enabled.
func (w *Writer) WriteHeader(names []string) error {
	if w.cw == nil || !w.opts.Header {
		return nil
	}
	return w.cw.Write(append([]string{"label"}, names...))
}

// Write renders one row.
func (w *Writer) Write(r Row) error {
	if w.cw != nil {
		rec := make([]string, 0, len(r.Features)+1)
		rec = append(rec, w.num(r.Label))
		for _, f := range r.Features {
			rec = append(rec, w.num(f.Value))
		}
		if err := w.cw.Write(rec); err != nil {
			return err
		}
		w.written++
		return nil
	}

	var sb strings.Builder
	sb.WriteString(w.num(r.Label))
	if w.opts.Format == FormatWeighted {
		sb.WriteString(" 1 ")
	} else {
		sb.WriteString(" '")
	}
	sb.WriteString(strconv.Itoa(r.Index))
	sb.WriteString("|")
	sb.WriteString(w.opts.Namespace)
	for _, f := range r.Features {
		sb.WriteString(" ")
		sb.WriteString(f.Name)
		sb.WriteString(":")
		sb.WriteString(w.num(f.Value))
	}
	sb.WriteString("\n")
	if _, err := w.bw.WriteString(sb.String()); err != nil {
		return err
	}
	w.written++
	return nil
}

// WriteAll writes every row of seq and flushes.
func (w *Writer) WriteAll(seq iter.Seq[Row]) error {
	for r := range seq {
		if err := w.Write(r); err != nil {
			return fmt.Errorf("write row %d: %w", r.Index, err)
		}
	}
	return w.Flush()
}

// Flush writes any buffered output.
func (w *Writer) Flush() error {
	if w.cw != nil {
		w.cw.Flush()
		if err := w.cw.Error(); err != nil {
			return err
		}
	}
	return w.bw.Flush()
}

// Written reports how many rows have been written.
func (w *Writer) Written() int { return w.written }

func (w *Writer) num(v float64) string {
	return strconv.FormatFloat(v, 'f', w.opts.Precision, 64)
}
