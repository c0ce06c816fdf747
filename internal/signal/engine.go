package signal

import (
	"strconv"
	"strings"

	"github.com/sawpanic/signalrun/internal/data"
	"github.com/sawpanic/signalrun/internal/fault"
)

// CloseColumn is the dataset column the engine consumes.
const CloseColumn = "close"

// Result carries the per-row outputs of one engine pass plus the
// reduced summary metric.
type Result struct {
	Means   []float64
	Signals []int
	Rate    float64
}

// Compute runs the rolling-mean signal pass over rows in file order
// using a window of the given capacity.
//
// Each close value joins the window before the mean is taken, so the
// mean always includes the value under test. A signal fires only on a
// strict exceedance; equality stays flat, which makes a window of one
// produce no signals at all. The rate divides fired signals by the
// total row count.
//
// The pass is fail-fast: the first unparsable close value aborts with
// no partial result.
func Compute(rows []data.Row, window int) (*Result, error) {
	// The buffer can never hold more than len(rows) samples; cap the
	// allocation there.
	capacity := window
	if capacity > len(rows) {
		capacity = len(rows)
	}
	w := NewWindow(capacity)
	res := &Result{
		Means:   make([]float64, 0, len(rows)),
		Signals: make([]int, 0, len(rows)),
	}

	fired := 0
	for _, row := range rows {
		value, err := parseClose(row[CloseColumn])
		if err != nil {
			return nil, err
		}

		w.Push(value)
		mean := w.Mean()
		res.Means = append(res.Means, mean)

		if value > mean {
			res.Signals = append(res.Signals, 1)
			fired++
		} else {
			res.Signals = append(res.Signals, 0)
		}
	}

	if len(rows) > 0 {
		res.Rate = float64(fired) / float64(len(rows))
	}
	return res, nil
}

// parseClose converts a raw close cell to a float. Surrounding
// whitespace is tolerated; anything else is a terminal failure whose
// message carries the offending cell verbatim.
func parseClose(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fault.New(fault.NonNumericValue, "Invalid CSV file format: non-numeric 'close' value encountered: %q", raw)
	}
	return value, nil
}
