package apisports

import (
	jsoniter "github.com/json-iterator/go"
)

// envelope is the wrapper API-Football puts around every response.
// errors is [] on success and an object such as {"token": "..."} on failure.
type envelope[T any] struct {
	Errors   jsoniter.RawMessage `json:"errors"`
	Results  int                 `json:"results"`
	Response []T                 `json:"response"`
}

type teamItem struct {
	Team struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Logo    string `json:"logo"`
	} `json:"team"`
}

type fixtureSide struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type fixtureItem struct {
	Fixture struct {
		ID   int    `json:"id"`
		Date string `json:"date"`
	} `json:"fixture"`
	Teams struct {
		Home fixtureSide `json:"home"`
		Away fixtureSide `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home    *int `json:"home"`
		Away    *int `json:"away"`
		For     *int `json:"for"`
		Against *int `json:"against"`
	} `json:"goals"`
}

// providerErrors flattens the errors field into a message, empty when there is none
func providerErrors(raw jsoniter.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asMap map[string]string
	if err := jsoniter.Unmarshal(raw, &asMap); err == nil {
		for key, msg := range asMap {
			return key + ": " + msg
		}
		return ""
	}

	var asList []string
	if err := jsoniter.Unmarshal(raw, &asList); err == nil && len(asList) > 0 {
		return asList[0]
	}
	return ""
}
