package internal

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// BuildArchive packages the named artifacts into a ZIP. The packaging layer
// sits at the boundary of the assembly core: the pipeline produces artifacts
// in memory and never archives them itself.
func BuildArchive(artifacts []StoreArtifact) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, a := range artifacts {
		w, err := zw.Create(a.Name)
		if err != nil {
			return nil, fmt.Errorf("creating ZIP entry %s: %w", a.Name, err)
		}
		if _, err := w.Write(a.Data); err != nil {
			return nil, fmt.Errorf("writing ZIP entry %s: %w", a.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing ZIP: %w", err)
	}
	return buf.Bytes(), nil
}
