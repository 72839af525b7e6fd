package gemini

// Response schemas sent as generationConfig.responseSchema. The backend is
// constrained to these shapes; anything it returns outside them is handled
// by the strict parsers in result.go.

func extractionSchema() map[string]interface{} {
	stringField := map[string]interface{}{"type": "STRING"}
	stringList := map[string]interface{}{
		"type":  "ARRAY",
		"items": map[string]interface{}{"type": "STRING"},
	}

	return map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"name":    stringField,
			"summary": stringField,
			"metrics": map[string]interface{}{
				"type": "OBJECT",
				"properties": map[string]interface{}{
					"behavioralTraits":     stringList,
					"epistemology":         stringField,
					"moralAxioms":          stringList,
					"rhetoricalStructure":  stringField,
					"linguisticPatterns":   stringList,
					"cognitiveBiases":      stringList,
					"valueHierarchy":       stringList,
					"emotionalConstraints": stringField,
				},
				"required": []string{
					"behavioralTraits", "epistemology", "moralAxioms",
					"rhetoricalStructure", "linguisticPatterns", "cognitiveBiases",
					"valueHierarchy", "emotionalConstraints",
				},
			},
		},
		"required": []string{"name", "summary", "metrics"},
	}
}

func converseSchema() map[string]interface{} {
	stringField := map[string]interface{}{"type": "STRING"}

	return map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"responseText": stringField,
			"fallacies": map[string]interface{}{
				"type": "ARRAY",
				"items": map[string]interface{}{
					"type": "OBJECT",
					"properties": map[string]interface{}{
						"name":               stringField,
						"description":        stringField,
						"exampleFromContext": stringField,
					},
					"required": []string{"name", "description", "exampleFromContext"},
				},
			},
		},
		"required": []string{"responseText"},
	}
}
