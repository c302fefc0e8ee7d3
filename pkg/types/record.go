package types

import "time"

// Record is one event as delivered by the record source. The pipeline
// never inspects the fields, it only carries them into Parquet.
type Record struct {
	ID            string    `json:"id" parquet:"id"`
	Category      string    `json:"category" parquet:"category,dict"`
	Location      string    `json:"location" parquet:"location,dict"`
	IntervalStart time.Time `json:"interval_start" parquet:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end" parquet:"interval_end"`
	Flag          bool      `json:"flag" parquet:"flag"`
}

// Batch is the ordered result of a single fetch.
type Batch []Record

// LandingFile identifies a published, immutable file in the landing zone.
type LandingFile struct {
	Name      string
	Path      string
	Rows      int64
	SizeBytes int64
	Compacted bool
}
