package contracts

// Instrument is one tracked security from the instrument registry.
// The registry owns this data; the pipeline only reads it.
type Instrument struct {
	ID       int64  `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	BulkCode string `json:"bulk_code"` // ticker on the bulk download feed, empty if not listed there
	FileCode string `json:"file_code"` // numeric code in the file feed, empty if not listed there
	IsActive bool   `json:"is_active"`
}

// HasBulkCode reports whether the instrument can be fetched from the bulk feed
func (i Instrument) HasBulkCode() bool {
	return i.BulkCode != ""
}

// HasFileCode reports whether the instrument appears in the file feed
func (i Instrument) HasFileCode() bool {
	return i.FileCode != ""
}
