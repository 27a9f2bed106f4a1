package report

import (
	"encoding/json"
	"io"
	"os"

	"github.com/teranos/pixelcheck/errors"
)

// compactEnv switches JSON output to a single line, for agents that
// re-indent or truncate pretty output
const compactEnv = "PIXELCHECK_COMPACT_JSON"

// MarshalJSON marshals v indented for humans, or compact when
// PIXELCHECK_COMPACT_JSON is set
func MarshalJSON(v interface{}) ([]byte, error) {
	if os.Getenv(compactEnv) != "" {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

// WriteJSON writes v to w followed by a newline
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "failed to write JSON")
	}
	return nil
}

// WriteJSONFile writes v to path, replacing any existing file
func WriteJSONFile(path string, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
