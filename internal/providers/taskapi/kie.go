package taskapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vidmase/bananina/internal/domain"
)

const (
	KieCreatePath = "/api/v1/jobs/createTask"
	KieStatusPath = "/api/v1/jobs/recordInfo"
)

var kieExtraCodes = map[int]CodeEntry{
	455: {Kind: KindNotFound, Text: "Model disabled: the service is under maintenance"},
	501: {Kind: KindServer, Text: "Generation failed on the provider"},
	505: {Kind: KindNotFound, Text: "Model disabled: the feature is turned off by the provider"},
}

// KieJobsProfile returns the kie.ai jobs API profile shared by every model
// hosted on the unified createTask/recordInfo endpoints.
func KieJobsProfile(name, baseURL string) Profile {
	return Profile{
		Name:         name,
		BaseURL:      baseURL,
		CreatePath:   KieCreatePath,
		StatusPath:   KieStatusPath,
		TaskIDParam:  "taskId",
		OKCode:       "200",
		ExtraCodes:   kieExtraCodes,
		DecodeStatus: DecodeKieStatus,
	}
}

type kieRecord struct {
	TaskID     string          `json:"taskId"`
	Model      string          `json:"model"`
	State      string          `json:"state"`
	ResultJSON json.RawMessage `json:"resultJson"`
	FailCode   Code            `json:"failCode"`
	FailMsg    string          `json:"failMsg"`
}

// DecodeKieStatus decodes a recordInfo payload.
func DecodeKieStatus(data json.RawMessage) (Status, error) {
	var rec kieRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Status{}, fmt.Errorf("decode task record: %w", err)
	}
	st := Status{
		State:       kieState(rec.State),
		RawState:    rec.State,
		FailCode:    string(rec.FailCode),
		FailMessage: strings.TrimSpace(rec.FailMsg),
	}
	if st.State != domain.JobStateSuccess {
		return st, nil
	}
	doc, err := DecodeResultDocument(rec.ResultJSON)
	if err != nil {
		return st, err
	}
	st.URLs = doc.URLs()
	return st, nil
}

func kieState(state string) domain.JobState {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "waiting", "queuing", "queued":
		return domain.JobStateQueued
	case "success":
		return domain.JobStateSuccess
	case "fail", "failed":
		return domain.JobStateFailed
	default:
		return domain.JobStateProcessing
	}
}
