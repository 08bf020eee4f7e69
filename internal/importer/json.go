package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseJSON reads a JSON array of {"word", "definition"} objects
func ParseJSON(r io.Reader, existing map[string]struct{}) (*Result, error) {
	dec := json.NewDecoder(r)

	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil {
		return nil, &ParseError{Format: "JSON", Reason: "JSON must be an array of word objects", Err: err}
	}
	// null decodes without error but leaves items nil
	if items == nil {
		return nil, &ParseError{Format: "JSON", Reason: "JSON must be an array of word objects"}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Format: "JSON", Reason: "unexpected data after the word list", Err: err}
	}

	c := newCollector(existing)
	for i, raw := range items {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			c.invalid(i+1, "entry must be an object")
			continue
		}
		addFields(c, i+1, fields)
	}
	return c.res, nil
}

// ParseYAML reads a YAML sequence of {word, definition} mappings
func ParseYAML(r io.Reader, existing map[string]struct{}) (*Result, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Format: "YAML", Reason: "could not read document", Err: err}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, &ParseError{Format: "YAML", Reason: "YAML must be a list of word entries"}
	}

	c := newCollector(existing)
	for i, item := range doc.Content[0].Content {
		var fields map[string]any
		if item.Kind != yaml.MappingNode || item.Decode(&fields) != nil {
			c.invalid(i+1, "entry must be a mapping")
			continue
		}
		addFields(c, i+1, fields)
	}
	return c.res, nil
}

// addFields accepts only string word and definition values
func addFields(c *collector, row int, fields map[string]any) {
	word, ok := fields["word"].(string)
	if !ok {
		c.invalid(row, fmt.Sprintf("word must be a string, got %T", fields["word"]))
		return
	}
	definition, ok := fields["definition"].(string)
	if !ok {
		c.invalid(row, fmt.Sprintf("definition must be a string, got %T", fields["definition"]))
		return
	}
	c.add(row, word, definition)
}
