// Package colingest turns comma-delimited city records into typed,
// column-oriented tables ready for numeric analysis.
//
// Each input line carries city, state, population, latitude and longitude.
// Malformed or missing fields never abort an ingest: text falls back to
// "None", population becomes absent and coordinates become NaN. Lines that
// cannot be read are skipped and records that fail schema validation are
// rejected; both are counted separately in the result.
//
// # Parser Strategies
//
// Three interchangeable row parsers produce the same table for well-formed
// input so their performance can be compared:
//
//	schema - encoding/csv with per-field type validation
//	split  - decoded text lines split positionally on ','
//	bytes  - raw byte lines split without decoding
//
// # Quick Start
//
//	opts := ingest.DefaultOptions()
//	opts.Strategy = parser.StrategyBytes
//
//	res, err := ingest.File(ctx, "uspop.csv", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	lat := res.Table.Latitudes()
//	fmt.Println(res.Table.Len(), res.Skipped, res.Rejected, len(lat))
//
// # Key Packages
//
//	pkg/coerce       - Field coercion policy and fallbacks
//	pkg/parser       - Row parsers for the three strategies
//	pkg/columnar     - Typed columns, accumulator, table and statistics
//	pkg/ingest       - Ingestion driver and run result
//	pkg/source       - Local, stdin, S3 and GCS sources with decompression
//	pkg/formats      - Arrow IPC, Avro OCF and Parquet export
//	pkg/sink         - PostgreSQL COPY and object store destinations
//	pkg/config       - YAML configuration with environment overrides
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus metrics
//	internal/bench   - Strategy comparison harness
//
// # Command Line
//
//	colingest ingest uspop.csv --strategy schema
//	colingest bench uspop.csv -n 20 --lines
//	colingest export uspop.csv -o s3://bucket/cities.arrow
//
// Configuration files may reference environment variables with ${VAR_NAME}
// syntax, and every key can be overridden with COLINGEST_<SECTION>_<KEY>.
package colingest
