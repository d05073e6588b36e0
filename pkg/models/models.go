package models

import (
	"encoding/json"
	"time"
)

// Data is the free-form metadata attached to every record. It must stay
// JSON-serializable; writes are rejected otherwise.
type Data map[string]any

// Serializable reports whether d survives a JSON encoding.
func (d Data) Serializable() bool {
	_, err := json.Marshal(d)
	return err == nil
}

// Merge copies every key of other into d, overwriting existing keys.
// Keys absent from other are left untouched.
func (d Data) Merge(other Data) {
	for k, v := range other {
		d[k] = v
	}
}

// Project is the top-level named container for experiments.
type Project struct {
	Name         string       `json:"name"`
	Tags         string       `json:"tags"`
	Description  string       `json:"description"`
	Data         Data         `json:"data"`
	CreationTime time.Time    `json:"creation_time"`
	Hidden       bool         `json:"hidden"`
	Experiments  []Experiment `json:"experiments,omitempty"`
}

// Experiment is a unit of work belonging to a project.
type Experiment struct {
	UUID         string            `json:"uuid"`
	Name         string            `json:"name"`
	Tags         string            `json:"tags"`
	Description  string            `json:"description"`
	Data         Data              `json:"data"`
	ProjectName  string            `json:"project_name"`
	CreationTime time.Time         `json:"creation_time"`
	Hidden       bool              `json:"hidden"`
	States       []ExperimentState `json:"states,omitempty"`
}

// ExperimentState is a snapshot belonging to an experiment.
type ExperimentState struct {
	UUID           string    `json:"uuid"`
	Name           string    `json:"name"`
	Tags           string    `json:"tags"`
	Description    string    `json:"description"`
	Data           Data      `json:"data"`
	ExperimentUUID string    `json:"experiment_uuid"`
	CreationTime   time.Time `json:"creation_time"`
	Hidden         bool      `json:"hidden"`
}
