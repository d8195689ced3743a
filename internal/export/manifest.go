package export

import (
	"encoding/json"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Artifact kinds.
const (
	KindCSV     = "csv"
	KindGPKG    = "gpkg"
	KindGeoTIFF = "geotiff"
	KindPDF     = "pdf"
)

// Artifact is one file written by an export.
type Artifact struct {
	Kind        string `json:"kind"`
	Path        string `json:"path"`
	Phenomenon  string `json:"phenomenon,omitempty"`
	PropertySet string `json:"property_set,omitempty"`
	Property    string `json:"property,omitempty"`
	Timestep    int    `json:"timestep,omitempty"`
	CRS         string `json:"crs,omitempty"`
}

// Record describes one dispatcher call.
type Record struct {
	ID        string     `json:"id"`
	Operation string     `json:"operation"`
	Started   time.Time  `json:"started"`
	Duration  string     `json:"duration"`
	Artifacts []Artifact `json:"artifacts"`
}

// Manifest collects the records of every export run through an Exporter.
type Manifest struct {
	mu      sync.Mutex
	records []*Record
}

func NewManifest() *Manifest {
	return &Manifest{}
}

func newRecord(op string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Operation: op,
		Started:   time.Now(),
		Artifacts: []Artifact{},
	}
}

func (m *Manifest) add(r *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
}

// Records returns the recorded exports in call order.
func (m *Manifest) Records() []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// Paths lists every artifact path in the manifest.
func (m *Manifest) Paths() []string {
	var paths []string
	for _, r := range m.Records() {
		for _, a := range r.Artifacts {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

type manifestData struct {
	Generated time.Time `json:"generated"`
	Exports   []*Record `json:"exports"`
}

func (m *Manifest) Encode(w io.Writer) error {
	data := manifestData{Generated: time.Now(), Exports: m.Records()}
	if data.Exports == nil {
		data.Exports = []*Record{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteJSON writes the manifest to path.
func (m *Manifest) WriteJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := m.Encode(file); err != nil {
		return err
	}
	return file.Close()
}
