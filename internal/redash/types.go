package redash

import (
	"fmt"
	"strconv"

	"github.com/vnbi/hco-tools/internal/domain"
)

// Job statuses returned by the jobs endpoint.
const (
	jobQueued    = 1
	jobStarted   = 2
	jobFinished  = 3
	jobFailed    = 4
	jobCancelled = 5
)

type refreshRequest struct {
	MaxAge     int               `json:"max_age"`
	Parameters map[string]string `json:"parameters"`
}

type jobResponse struct {
	Job struct {
		ID            string `json:"id"`
		Status        int    `json:"status"`
		QueryResultID int    `json:"query_result_id"`
		Error         string `json:"error"`
	} `json:"job"`
}

type queryResultResponse struct {
	QueryResult struct {
		Data struct {
			Rows []map[string]interface{} `json:"rows"`
		} `json:"data"`
	} `json:"query_result"`
}

// cellString renders a JSON cell value the way the spreadsheet pipeline
// expects: numbers without a float suffix, nil as empty.
func cellString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func recordFromRow(row map[string]interface{}) domain.Record {
	return domain.Record{
		TrackingID:   cellString(row[domain.ColTracking]),
		ShipperID:    cellString(row[domain.ColShipperID]),
		CustomerName: cellString(row[domain.ColCustomer]),
		Phone:        cellString(row[domain.ColPhone]),
		Address:      cellString(row[domain.ColAddress]),
		Instruction:  cellString(row[domain.ColInstructionRaw]),
		Reason:       cellString(row[domain.ColReason]),
		CreatedAt:    cellString(row[domain.ColCreated]),
		Attempts:     cellString(row[domain.ColAttempts]),
	}
}
