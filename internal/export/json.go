package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/storage"
)

type Data struct {
	Run        storage.RunMetadata `json:"run"`
	Steps      int                 `json:"steps"`
	Times      []float64           `json:"times"`
	References []float64           `json:"references"`
	Controls   []float64           `json:"controls"`
	Outputs    []float64           `json:"outputs"`
	Metrics    map[string]float64  `json:"metrics"`
}

func WriteJSON(w io.Writer, meta *storage.RunMetadata, result *dynamo.Result) error {
	data := Data{
		Run:        *meta,
		Steps:      len(result.Samples),
		Times:      result.Times(),
		References: result.References(),
		Controls:   result.Controls(),
		Outputs:    result.Outputs(),
		Metrics:    result.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
