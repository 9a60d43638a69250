package segment

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// #region schema

//go:embed inputs.schema.json
var inputsSchema string

const inputsSchemaURL = "https://h2ready.schemas.local/segment/inputs.schema.json"

var compileInputsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(inputsSchemaURL, strings.NewReader(inputsSchema)); err != nil {
		return nil, fmt.Errorf("load inputs schema: %w", err)
	}
	return c.Compile(inputsSchemaURL)
})

// #endregion schema

// #region validate
// Validate checks declared physical ranges (percentages in [0,100], pH in
// [0,14], non-negative counts). The scoring engine never calls this; it is an
// opt-in check for collection boundaries.
func Validate(in Inputs) error {
	sch, err := compileInputsSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode inputs: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("inputs out of range: %w", err)
	}
	return nil
}

// #endregion validate
