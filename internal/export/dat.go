package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// DATHeader is the first line of a .dat export; columns are tab separated.
const DATHeader = "Time\tReference\tControlSignal\tPlantOutput"

// WriteDAT writes one row per sample: time, reference, control and output.
func WriteDAT(w io.Writer, result *dynamo.Result) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, DATHeader); err != nil {
		return err
	}
	for _, s := range result.Samples {
		if _, err := fmt.Fprintf(bw, "%g\t%g\t%g\t%g\n", s.Time, s.Reference, s.Control, s.Output); err != nil {
			return err
		}
	}
	return bw.Flush()
}
