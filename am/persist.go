package am

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/pixelcheck/errors"
)

// backupCount is how many rotated copies (.back1 .. .backN) are kept
const backupCount = 3

// WriteConfig writes cfg as TOML to path. An existing file is only replaced
// when overwrite is set, and is rotated into .back1 first.
func WriteConfig(path string, cfg *Config, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.WithHint(
			errors.Newf("config file %s already exists", path),
			"pass --force to replace it (the old file is kept as .back1)")
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return writeWithBackup(path, data)
}

// SetValue updates one dotted key (e.g. "matcher.enabled") in the TOML file
// at path, creating the file and intermediate tables as needed. Booleans and
// integers are stored typed; everything else as a string.
func SetValue(path, key, value string) error {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return errors.NewInvalidRequestError("invalid config key %q", key)
		}
	}

	doc := map[string]interface{}{}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	table := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := table[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			table[p] = next
		}
		table = next
	}
	table[parts[len(parts)-1]] = typedValue(value)

	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return writeWithBackup(path, data)
}

func typedValue(s string) interface{} {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func writeWithBackup(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := rotateBackups(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// rotateBackups shifts .back1 -> .back2 -> .back3 (dropping the oldest) and
// copies the current file to .back1. A missing file is not an error.
func rotateBackups(path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	backup := func(n int) string { return path + ".back" + strconv.Itoa(n) }
	if err := os.Remove(backup(backupCount)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete %s", backup(backupCount))
	}
	for n := backupCount - 1; n >= 1; n-- {
		if _, err := os.Stat(backup(n)); err == nil {
			if err := os.Rename(backup(n), backup(n+1)); err != nil {
				return errors.Wrapf(err, "failed to rotate %s", backup(n))
			}
		}
	}
	return os.WriteFile(backup(1), content, DefaultFilePermissions)
}
