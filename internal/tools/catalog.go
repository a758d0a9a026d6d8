package tools

import (
	"github.com/google/jsonschema-go/jsonschema"
	"go-toolchat/pkg/models"
)

var forecastSpec = Spec{
	Name: models.ToolForecast,
	Description: "Get the daily weather forecast (high/low temperature and chance of rain) for up to 7 days. " +
		"Use it for any question about weather, temperature, rain, or what to wear somewhere.",
	Parameters: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"location": {
				Type:        "string",
				Description: "City or place name, e.g. \"Tokyo\" or \"Paris, France\"",
			},
			"latitude": {
				Type:        "number",
				Description: "Latitude in decimal degrees, only when the user gave coordinates",
			},
			"longitude": {
				Type:        "number",
				Description: "Longitude in decimal degrees, only when the user gave coordinates",
			},
			"unit": {
				Type:        "string",
				Description: "Unit system for temperatures",
				Enum:        []any{"metric", "imperial"},
			},
		},
	},
}

var encyclopediaSpec = Spec{
	Name: models.ToolEncyclopedia,
	Description: "Look up a topic in Wikipedia and return the summary of the best matching article. " +
		"Use it for facts about people, places, organisations, events, and things.",
	Parameters: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "The subject to look up, e.g. \"Real Madrid\" or \"Marie Curie\"",
			},
			"lang": {
				Type:        "string",
				Description: "Two letter Wikipedia language code, defaults to \"en\"",
			},
		},
		Required: []string{"query"},
	},
}

var satelliteSpec = Spec{
	Name:        models.ToolSatellite,
	Description: "Get the current live position of the International Space Station (ISS).",
	Parameters: &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	},
}
