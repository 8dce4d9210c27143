package neat

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// SaveGenome writes a genome to a YAML file, gzip-compressed when the path
// ends in ".gz".
func SaveGenome(g *Genome, filePath string) error {
	data, err := MarshalGenome(g)
	if err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create genome file '%s': %w", filePath, err)
	}
	defer file.Close()

	if !strings.HasSuffix(filePath, ".gz") {
		if _, err := file.Write(data); err != nil {
			return fmt.Errorf("failed to write genome file '%s': %w", filePath, err)
		}
		return nil
	}

	gzWriter := gzip.NewWriter(file)
	if _, err := gzWriter.Write(data); err != nil {
		return fmt.Errorf("failed to write genome file '%s': %w", filePath, err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush genome file '%s': %w", filePath, err)
	}
	return nil
}

// LoadGenome reads a genome written by SaveGenome. See UnmarshalGenome for
// the role of reg, which may be nil.
func LoadGenome(filePath string, reg *InnovationRegistry) (*Genome, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open genome file '%s': %w", filePath, err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(filePath, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for '%s': %w", filePath, err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read genome file '%s': %w", filePath, err)
	}
	g, err := UnmarshalGenome(data, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to load genome file '%s': %w", filePath, err)
	}
	return g, nil
}
