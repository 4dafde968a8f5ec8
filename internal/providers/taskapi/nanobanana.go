package taskapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vidmase/bananina/internal/domain"
)

const (
	NanoBananaCreatePath = "/api/v1/nanobanana/generate"
	NanoBananaStatusPath = "/api/v1/nanobanana/record-info"
)

// NanoBananaProfile returns the profile for the dedicated nanobananaapi.ai host.
func NanoBananaProfile(name, baseURL string) Profile {
	return Profile{
		Name:         name,
		BaseURL:      baseURL,
		CreatePath:   NanoBananaCreatePath,
		StatusPath:   NanoBananaStatusPath,
		TaskIDParam:  "taskId",
		OKCode:       "200",
		DecodeStatus: DecodeNanoBananaStatus,
	}
}

type nanoBananaRecord struct {
	TaskID       string `json:"taskId"`
	SuccessFlag  int    `json:"successFlag"`
	ErrorCode    Code   `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	Response     *struct {
		ResultImageURL string `json:"resultImageUrl"`
		OriginImageURL string `json:"originImageUrl"`
	} `json:"response"`
}

// DecodeNanoBananaStatus decodes a record-info payload. successFlag is
// 0 while generating, 1 on success, and 2 or 3 on failure.
func DecodeNanoBananaStatus(data json.RawMessage) (Status, error) {
	var rec nanoBananaRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Status{}, fmt.Errorf("decode task record: %w", err)
	}
	st := Status{RawState: fmt.Sprintf("successFlag=%d", rec.SuccessFlag)}
	switch rec.SuccessFlag {
	case 1:
		st.State = domain.JobStateSuccess
		if rec.Response != nil {
			if u := strings.TrimSpace(rec.Response.ResultImageURL); u != "" {
				st.URLs = []string{u}
			}
		}
	case 2, 3:
		st.State = domain.JobStateFailed
		st.FailCode = string(rec.ErrorCode)
		st.FailMessage = strings.TrimSpace(rec.ErrorMessage)
	default:
		st.State = domain.JobStateProcessing
	}
	return st, nil
}
