// Package criteria matches instance records against list parameters used by
// the engine's ListInstances filter.
package criteria

import (
	"time"

	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/dao"
)

// Filter parameter names understood by the instance stores.
const (
	ParamStatus      = "Status"
	ParamTemplateID  = "TemplateID"
	ParamInitiatorID = "InitiatorID"
	ParamCreatedFrom = "CreatedFrom"
	ParamCreatedTo   = "CreatedTo"
)

// MatchInstance reports whether the instance satisfies every supplied
// parameter; unknown parameter names are ignored.
func MatchInstance(instance *model.Instance, parameters []*dao.Parameter) bool {
	if instance == nil {
		return false
	}
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		switch parameter.Name {
		case ParamStatus:
			if !matchText(string(instance.Status), parameter.Value) {
				return false
			}
		case ParamTemplateID:
			if !matchText(instance.TemplateID, parameter.Value) {
				return false
			}
		case ParamInitiatorID:
			if !matchText(instance.InitiatorID, parameter.Value) {
				return false
			}
		case ParamCreatedFrom:
			if at, ok := parameter.Value.(time.Time); ok && instance.CreatedAt.Before(at) {
				return false
			}
		case ParamCreatedTo:
			if at, ok := parameter.Value.(time.Time); ok && instance.CreatedAt.After(at) {
				return false
			}
		}
	}
	return true
}

func matchText(actual string, expected interface{}) bool {
	switch value := expected.(type) {
	case string:
		return actual == value
	case []string:
		for _, candidate := range value {
			if actual == candidate {
				return true
			}
		}
		return false
	}
	return true
}
