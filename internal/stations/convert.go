package stations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Convert reads the text station dump at input, normalizes it and writes
// the stations as an indented JSON array to output. The output file is
// replaced atomically, so a failed run leaves any previous output intact.
func Convert(input, output string) (Result, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return Result{}, &IOError{Op: "read", Path: input, Err: err}
	}
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("%s: input is not valid UTF-8", input)
	}

	res := Normalize(string(data))

	buf, err := Encode(res.Stations)
	if err != nil {
		return Result{}, fmt.Errorf("encode stations: %w", err)
	}

	if err := writeFileAtomic(output, buf); err != nil {
		return Result{}, &IOError{Op: "write", Path: output, Err: err}
	}

	return res, nil
}

// Encode renders stations as a JSON array indented with two spaces.
// Non-ASCII text and HTML characters are written literally.
func Encode(stations []Station) ([]byte, error) {
	if stations == nil {
		stations = []Station{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stations); err != nil {
		return nil, err
	}

	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes that
// encoding/json always emits back into the raw characters. Every other
// escape sequence is copied unchanged.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if i+5 < len(b) && b[i+1] == 'u' && string(b[i+2:i+5]) == "202" && (b[i+5] == '8' || b[i+5] == '9') {
			out = utf8.AppendRune(out, rune(0x2020+int(b[i+5]-'0')))
			i += 5
			continue
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// Summary is the one-line report printed after a successful conversion.
func (r Result) Summary() string {
	return fmt.Sprintf("Converted %d stations to JSON (%d unique)", r.Total, r.Unique())
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
