package contracts

import "time"

// BatchStatus is the lifecycle state of a file upload batch
type BatchStatus string

const (
	BatchPending BatchStatus = "PENDING"
	BatchSuccess BatchStatus = "SUCCESS"
	BatchFailed  BatchStatus = "FAILED"
)

// UploadBatch summarizes one ingestion of a file-feed file
type UploadBatch struct {
	ID             int64       `json:"id"`
	SourceFileName string      `json:"source_file_name"`
	TargetDate     time.Time   `json:"target_date"`
	Status         BatchStatus `json:"status"`
	RecordsTotal   int         `json:"records_total"`
	RecordsLoaded  int         `json:"records_loaded"`
	ErrorMessage   string      `json:"error_message,omitempty"`
}
