package importer

import (
	"encoding/json"

	"github.com/example/grevocab/pkg/models"
)

var sampleWords = []models.WordDefinition{
	{Word: "Abate", Definition: "To reduce in intensity or amount; to lessen"},
	{Word: "Aberrant", Definition: "Departing from an accepted standard; deviant"},
	{Word: "Abscond", Definition: "To leave hurriedly and secretly, typically to avoid detection"},
	{Word: "Abstemious", Definition: "Restrained in eating or drinking; temperate"},
	{Word: "Admonish", Definition: "To warn or reprimand someone firmly"},
}

// SampleJSON returns an example upload file
func SampleJSON() []byte {
	data, _ := json.MarshalIndent(sampleWords, "", "  ")
	return data
}
