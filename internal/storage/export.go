package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/orbitsim/internal/sim"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Frames []sim.Frame `json:"frames"`
}

func ExportJSON(path string, meta RunMetadata, frames []sim.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, meta, frames)
}

func WriteJSON(w io.Writer, meta RunMetadata, frames []sim.Frame) error {
	if frames == nil {
		frames = []sim.Frame{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Frames: frames})
}
