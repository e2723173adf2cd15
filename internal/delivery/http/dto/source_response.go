package dto

import "scrape-aggregator/internal/domain/source"

type SourceResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}

func NewSourceResponse(s source.Source) SourceResponse {
	return SourceResponse{ID: s.ID, Name: s.Name, Kind: s.Kind, Enabled: s.Enabled}
}
