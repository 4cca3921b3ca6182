package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"
)

// loadYAML reads a store file into target. A missing file leaves target
// at its zero value. A corrupt file is quarantined under a timestamped
// name and target is likewise left empty; corrupt state never crashes a
// caller. The returned string names the quarantine file, if any.
func loadYAML(path string, target interface{}) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	// Decode into a fresh value first: a failed unmarshal can leave a
	// partially populated target, and quarantined files must yield the
	// empty default, not partial state.
	fresh := reflect.New(reflect.TypeOf(target).Elem())
	if err := yaml.Unmarshal(data, fresh.Interface()); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt_%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, quarantine); renameErr != nil {
			return "", fmt.Errorf("quarantining corrupt %s: %w", filepath.Base(path), renameErr)
		}
		return quarantine, nil
	}
	reflect.ValueOf(target).Elem().Set(fresh.Elem())
	return "", nil
}

// saveYAML writes source atomically: marshal, write a temp file in the
// same directory, then rename over the target so a concurrent reader
// never observes a partial file.
func saveYAML(path string, source interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}
	data, err := yaml.Marshal(source)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
