package preflight

import (
	"fmt"
	"time"

	"research2crossref/internal/ledger"
	"research2crossref/internal/watermark"
)

// CheckLedger verifies that the ledger parses. A missing ledger passes.
func CheckLedger(path string) Result {
	const name = "Ledger"

	led, err := ledger.Open(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d registrations", led.Len())}
}

// CheckWatermark verifies that the watermark parses. A missing watermark
// passes; the configured created_since bound applies instead.
func CheckWatermark(path string) Result {
	const name = "Watermark"

	ts, ok, err := watermark.New(path).Load()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !ok {
		return Result{Name: name, Passed: true, Detail: "not set"}
	}
	return Result{Name: name, Passed: true, Detail: ts.Format(time.RFC3339)}
}
