// Package columnar holds the in-memory result of an ingest: typed, growable
// columns assembled by an Accumulator into a Table.
//
// # Columns
//
//   - StringColumn: city and state text
//   - Uint64Column: population, nullable through a bit-packed validity map
//   - Float64Column: latitude and longitude, NaN for fallback entries
//
// # Usage
//
//	acc := columnar.NewAccumulator(4096)
//	for _, row := range rows {
//		if err := acc.Append(row); err != nil {
//			return err
//		}
//	}
//	table := acc.Finish()
//	lat := table.Latitudes()
//
// Rows are committed whole: after every Append all five columns have the
// same length, and entry order is append order.
package columnar
