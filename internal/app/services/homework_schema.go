package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// optionsSchema describes the options list of a choice question.
const optionsSchema = `{
	"type": "array",
	"minItems": 2,
	"maxItems": 10,
	"uniqueItems": true,
	"items": {"type": "string", "minLength": 1, "maxLength": 500, "pattern": "\\S"}
}`

var compiledOptionsSchema = mustSchema([]byte(optionsSchema))

func mustSchema(raw []byte) *jsonschema.Schema {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, rs); err != nil {
		panic(fmt.Sprintf("invalid json schema: %v", err))
	}
	return rs
}

// validateAgainst runs data through the schema and turns the first key
// error into a validation error on field.
func validateAgainst(ctx context.Context, rs *jsonschema.Schema, field string, data []byte) error {
	verrs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return apperrors.NewValidationError(field, fmt.Sprintf("%s is not valid JSON", field))
	}
	if len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, ke := range verrs {
			msgs = append(msgs, strings.TrimSpace(ke.PropertyPath+" "+ke.Message))
		}
		return apperrors.NewValidationError(field, field+": "+strings.Join(msgs, "; "))
	}
	return nil
}

// validateQuestionOptions checks the options of a question for its kind.
// Text questions must not carry options.
func validateQuestionOptions(ctx context.Context, kind models.QuestionKind, options json.RawMessage) error {
	empty := len(options) == 0 || string(options) == "null"
	if !kind.IsChoice() {
		if !empty {
			return apperrors.NewValidationError("options", "options are only allowed for choice questions")
		}
		return nil
	}
	if empty {
		return apperrors.NewValidationError("options", "options are required for choice questions")
	}
	return validateAgainst(ctx, compiledOptionsSchema, "options", options)
}

// answerSchema builds the schema an answer to q must satisfy. Single choice
// answers are one option; multi choice answers are a JSON array of options.
func answerSchema(q *models.HomeworkQuestion) (*jsonschema.Schema, error) {
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, fmt.Errorf("question %d has invalid options: %w", q.ID, err)
	}

	var schema map[string]interface{}
	switch q.Kind {
	case models.QuestionSingleChoice:
		schema = map[string]interface{}{"enum": options}
	case models.QuestionMultiChoice:
		schema = map[string]interface{}{
			"type":        "array",
			"minItems":    1,
			"uniqueItems": true,
			"items":       map[string]interface{}{"enum": options},
		}
	default:
		return nil, fmt.Errorf("question %d is not a choice question", q.ID)
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// validateAnswer checks an answer against its question.
func validateAnswer(ctx context.Context, q *models.HomeworkQuestion, answer string) error {
	field := fmt.Sprintf("answers[%d]", q.ID)
	if strings.TrimSpace(answer) == "" {
		return apperrors.NewValidationError(field, "answer cannot be empty")
	}
	if !q.Kind.IsChoice() {
		return nil
	}

	rs, err := answerSchema(q)
	if err != nil {
		return err
	}

	data := []byte(answer)
	if q.Kind == models.QuestionSingleChoice {
		data, err = json.Marshal(answer)
		if err != nil {
			return err
		}
	}
	return validateAgainst(ctx, rs, field, data)
}
