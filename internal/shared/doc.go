// Package shared holds helpers used across the CrimeCast packages that do not
// belong to any single layer.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and small crime-trial datasets used as fixtures by the series,
// analytics, pipeline and transport tests:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    records := testutil.SampleRecords()
//	    ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
