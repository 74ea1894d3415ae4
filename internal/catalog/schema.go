package catalog

import (
	"fmt"

	"github.com/bece-prep/platform/internal/docstore"
	"github.com/xeipuuv/gojsonschema"
)

// Collection schemas. Only the fields that must hold for every document are
// constrained; documents may carry extra fields.
var collectionSchemas = map[string]string{
	ColSubjects: `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name":        {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"icon":        {"type": "string"},
			"color":       {"type": "string"},
			"active":      {"type": "boolean"}
		}
	}`,
	ColTopics: `{
		"type": "object",
		"required": ["name", "subjectId"],
		"properties": {
			"name":           {"type": "string", "minLength": 1},
			"subjectId":      {"type": "string", "minLength": 1},
			"difficulty":     {"enum": ["Beginner", "Intermediate", "Advanced", ""]},
			"estimatedHours": {"type": "number", "minimum": 0},
			"active":            {"type": "boolean"},
			"isPredictionTopic": {"type": "boolean"}
		}
	}`,
	ColQuestions: `{
		"type": "object",
		"required": ["prompt", "topicId", "subjectId", "type"],
		"properties": {
			"prompt":     {"type": "string", "minLength": 1},
			"topicId":    {"type": "string", "minLength": 1},
			"subjectId":  {"type": "string", "minLength": 1},
			"type":       {"enum": ["multiple-choice", "true-false", "short-answer", "essay"]},
			"difficulty": {"enum": ["Beginner", "Intermediate", "Advanced", ""]},
			"options":    {"type": "array", "items": {"type": "string"}},
			"points":     {"type": "integer", "minimum": 0},
			"timeSeconds":    {"type": "integer", "minimum": 0},
			"solutionAccess": {"enum": ["immediate", "after-attempt", "never"]},
			"published":  {"type": "boolean"},
			"active":     {"type": "boolean"}
		}
	}`,
	ColPredictions: `{
		"type": "object",
		"required": ["title", "subjectId"],
		"properties": {
			"title":       {"type": "string", "minLength": 1},
			"subjectId":   {"type": "string", "minLength": 1},
			"topicId":     {"type": "string"},
			"topicIds":    {"type": "array", "items": {"type": "string"}},
			"confidence":  {"type": "integer", "minimum": 0, "maximum": 100},
			"probability": {"type": "integer", "minimum": 0, "maximum": 100},
			"priority":    {"enum": ["High", "Medium", "Low", ""]},
			"active":      {"type": "boolean"}
		}
	}`,
	ColUsers: `{
		"type": "object",
		"required": ["email", "role"],
		"properties": {
			"email":       {"type": "string", "minLength": 3},
			"displayName": {"type": "string"},
			"role":        {"enum": ["student", "teacher", "admin"]},
			"school":      {"type": "string"},
			"grade":       {"type": "string"}
		}
	}`,
}

// Schemas compiles the per-collection document schemas enforced at the
// store layer.
func Schemas() (docstore.SchemaSet, error) {
	set := make(docstore.SchemaSet, len(collectionSchemas))
	for collection, raw := range collectionSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", collection, err)
		}
		set[collection] = schema
	}
	return set, nil
}
