package cliconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("schema.json")
	})
	return schema, schemaErr
}

// ValidateDocument checks a decoded config document against the embedded schema.
// The returned message lists every violation as "location: message".
func ValidateDocument(doc any) error {
	s, err := compileSchema()
	if err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// Round trip through JSON so the validator sees JSON types only.
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}

	err = s.Validate(generic)
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var msgs []string
	collectSchemaErrors(ve, &msgs)
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}

func collectSchemaErrors(err *jsonschema.ValidationError, out *[]string) {
	if len(err.Causes) == 0 {
		*out = append(*out, fieldFromPointer(err.InstanceLocation)+": "+err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, out)
	}
}

// fieldFromPointer turns a JSON pointer into dot notation.
func fieldFromPointer(ptr string) string {
	if ptr == "" || ptr == "/" {
		return "(root)"
	}
	return strings.ReplaceAll(strings.TrimPrefix(ptr, "/"), "/", ".")
}
