package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/habiliai/aurora/errors"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

var ErrMalformed = errors.New("llm: response is not valid JSON")

// Contract is the JSON schema a completion must satisfy.
type Contract struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// Validator is implemented by contract payloads with rules a schema cannot express.
type Validator interface {
	Validate() error
}

// NewContract reflects T into a closed schema: every field without omitempty
// is required, no additional properties are allowed, and nullable fields are
// expressed with anyOf so strict structured outputs accept them.
func NewContract[T any](name, description string) *Contract {
	r := jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := r.Reflect(new(T))
	schema.Version = ""
	schema.ID = ""
	schema.Title = ""
	schema.Description = description
	oneOfToAnyOf(schema)

	return &Contract{
		Name:        name,
		Description: description,
		Schema:      schema,
	}
}

func oneOfToAnyOf(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if len(s.OneOf) > 0 {
		s.AnyOf = append(s.AnyOf, s.OneOf...)
		s.OneOf = nil
	}
	for _, sub := range s.AnyOf {
		oneOfToAnyOf(sub)
	}
	oneOfToAnyOf(s.Items)
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			oneOfToAnyOf(pair.Value)
		}
	}
}

// SchemaMap renders the schema as a generic JSON value.
func (c *Contract) SchemaMap() (map[string]any, error) {
	raw, err := json.Marshal(c.Schema)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal schema of %s", c.Name)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal schema of %s", c.Name)
	}
	return m, nil
}

// Decode checks raw against the contract and stores it in out, which must be
// a pointer. out is left untouched unless the payload is fully valid.
func (c *Contract) Decode(raw []byte, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return errors.Wrapf(errors.ErrInvalidParams, "decode target of %s must be a non-nil pointer", c.Name)
	}

	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return errors.Wrapf(ErrMalformed, "%s: %q", c.Name, truncate(string(raw), 200))
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errors.Wrapf(ErrMalformed, "%s: %v", c.Name, err)
	}
	if _, ok := payload.(map[string]any); !ok {
		return errors.Wrapf(errors.ErrContract, "%s: payload is not a JSON object", c.Name)
	}
	if err := checkShape(c.Schema, payload, "$"); err != nil {
		return errors.Wrapf(errors.ErrContract, "%s: %v", c.Name, err)
	}

	value := reflect.New(target.Elem().Type())
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value.Interface()); err != nil {
		return errors.Wrapf(errors.ErrContract, "%s: %v", c.Name, err)
	}

	if v, ok := value.Interface().(Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrapf(errors.ErrContract, "%s: %v", c.Name, err)
		}
	}

	target.Elem().Set(value.Elem())
	return nil
}

// checkShape walks value against schema, enforcing required and unexpected
// object keys at every depth. Scalar types are left to the typed decode.
func checkShape(schema *jsonschema.Schema, value any, path string) error {
	if schema == nil {
		return nil
	}

	if len(schema.AnyOf) > 0 {
		var firstErr error
		for _, branch := range schema.AnyOf {
			err := checkShape(branch, value, path)
			if err == nil {
				return nil
			}
			if firstErr == nil && (value != nil || branch.Type != "null") {
				firstErr = err
			}
		}
		if firstErr == nil {
			firstErr = errors.Errorf("%s matches none of its allowed shapes", path)
		}
		return firstErr
	}

	if value == nil {
		if schema.Type == "" || schema.Type == "null" {
			return nil
		}
		return errors.Errorf("%s must not be null", path)
	}
	if schema.Type == "null" {
		return errors.Errorf("%s must be null", path)
	}

	switch v := value.(type) {
	case map[string]any:
		if schema.Properties == nil {
			return nil
		}
		if missing := lo.Filter(schema.Required, func(key string, _ int) bool {
			_, ok := v[key]
			return !ok
		}); len(missing) > 0 {
			return errors.Errorf("%s: missing required fields %v", path, missing)
		}
		var unknown []string
		for key, field := range v {
			prop, ok := schema.Properties.Get(key)
			if !ok {
				unknown = append(unknown, key)
				continue
			}
			if err := checkShape(prop, field, path+"."+key); err != nil {
				return err
			}
		}
		if len(unknown) > 0 {
			slices.Sort(unknown)
			return errors.Errorf("%s: unexpected fields %v", path, unknown)
		}
	case []any:
		for i, item := range v {
			if err := checkShape(schema.Items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
