package domain

import "time"

// Domain contains core models shared by the client and the sample API.

// Book is a single record of the /books listing. Date is kept as the raw
// string sent on the wire.
type Book struct {
	Author string `json:"Author"`
	Date   string `json:"Date"`
	ISBN   string `json:"ISBN"`
	Name   string `json:"Name"`
}

// RunResult is the measurement of one consumption strategy within a benchmark run.
type RunResult struct {
	RunID       string    `json:"run_id"`
	Strategy    string    `json:"strategy"`
	Sink        string    `json:"sink"`
	Target      string    `json:"target"`
	Iterations  int       `json:"iterations"`
	NsPerOp     int64     `json:"ns_per_op"`
	BytesPerOp  int64     `json:"bytes_per_op"`
	AllocsPerOp int64     `json:"allocs_per_op"`
	Requests    int64     `json:"requests"`
	ConnReused  int64     `json:"conn_reused"`
	StartedAt   time.Time `json:"started_at"`

	// Per-request means from client traces; zero when tracing was off.
	ServerNsPerReq int64 `json:"server_ns_per_request"`
	TotalNsPerReq  int64 `json:"total_ns_per_request"`
}
