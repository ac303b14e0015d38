package parquetstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-psd/channel"
)

const manifestName = "manifest.yaml"

// entry is one channel in the manifest. File is relative to the store root.
type entry struct {
	Name       string    `yaml:"name"`
	Unit       string    `yaml:"unit,omitempty"`
	SampleRate float64   `yaml:"sampleRate"`
	Start      time.Time `yaml:"start"`
	Samples    int       `yaml:"samples"`
	File       string    `yaml:"file"`
}

type manifest struct {
	Datasets map[string][]entry `yaml:"datasets"`
}

func (e entry) descriptor(dataset string) channel.Descriptor {
	return channel.Descriptor{
		Dataset:    dataset,
		Name:       e.Name,
		Unit:       e.Unit,
		SampleRate: e.SampleRate,
		Start:      e.Start,
		Samples:    e.Samples,
	}
}

func readManifest(dir string) (manifest, error) {
	m := manifest{Datasets: map[string][]entry{}}

	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}

	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Datasets == nil {
		m.Datasets = map[string][]entry{}
	}
	return m, nil
}

// writeManifest replaces the manifest through a rename so readers never see
// a partial file.
func writeManifest(dir string, m manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, manifestName+".*")
	if err != nil {
		return fmt.Errorf("creating manifest: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing manifest: %w", err)
	}

	return os.Rename(tmp.Name(), filepath.Join(dir, manifestName))
}

// upsert adds e to dataset or replaces the entry with the same name.
func (m *manifest) upsert(dataset string, e entry) {
	entries := m.Datasets[dataset]
	for i := range entries {
		if entries[i].Name == e.Name {
			entries[i] = e
			return
		}
	}

	entries = append(entries, e)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	m.Datasets[dataset] = entries
}

func (m manifest) lookup(ref channel.Ref) (entry, bool) {
	for _, e := range m.Datasets[ref.Dataset] {
		if e.Name == ref.Channel {
			return e, true
		}
	}
	return entry{}, false
}
