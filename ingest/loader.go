package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"kpialarm/core"
)

// LoadDefinitions reads a threshold definition file (JSON or YAML, a single
// document or an array of documents) and flattens it into rule rows.
func LoadDefinitions(filename string, logger *zap.SugaredLogger) ([]core.Rule, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}

	var doc interface{}
	if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal definitions: %w", err)
	}

	defs, err := asDefinitionList(doc)
	if err != nil {
		return nil, err
	}

	var rules []core.Rule
	for _, def := range defs {
		rules = append(rules, FlattenDefinition(def, logger)...)
	}

	logger.Infof("Loaded %d rules from %s (%d definitions)", len(rules), filename, len(defs))
	return rules, nil
}

// asDefinitionList accepts a single definition object or an array of them.
func asDefinitionList(doc interface{}) ([]map[string]interface{}, error) {
	switch t := doc.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{t}, nil
	case []interface{}:
		defs := make([]map[string]interface{}, 0, len(t))
		for i, raw := range t {
			def, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("definition %d is not an object", i)
			}
			defs = append(defs, def)
		}
		return defs, nil
	default:
		return nil, fmt.Errorf("definitions document must be an object or an array of objects")
	}
}
