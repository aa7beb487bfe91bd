// Package world loads the office map. Zones are authored as an object layer
// in a Tiled JSON map; only that layer is read, tile data is ignored.
package world

import (
	"encoding/json"
	"fmt"
	"os"

	"huddle/internal/domain/presence"
)

type tiledMap struct {
	Layers []tiledLayer `json:"layers"`
}

type tiledLayer struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Objects []tiledObject `json:"objects"`
}

type tiledObject struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LoadZones reads a Tiled JSON map and extracts the zones from the named
// object layer, preserving the layer's object order.
func LoadZones(mapPath, layerName string) ([]presence.Zone, error) {
	data, err := os.ReadFile(mapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	return ParseZones(data, layerName)
}

// ParseZones extracts zones from raw Tiled JSON map data.
func ParseZones(data []byte, layerName string) ([]presence.Zone, error) {
	var m tiledMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse map: %w", err)
	}

	for _, layer := range m.Layers {
		if layer.Name != layerName {
			continue
		}
		if layer.Type != "objectgroup" {
			return nil, fmt.Errorf("layer %q is %q, expected an object layer", layerName, layer.Type)
		}

		zones := make([]presence.Zone, 0, len(layer.Objects))
		for _, obj := range layer.Objects {
			if obj.Name == "" {
				return nil, fmt.Errorf("layer %q contains an unnamed zone object", layerName)
			}
			zones = append(zones, presence.Zone{
				Name:   obj.Name,
				X:      obj.X,
				Y:      obj.Y,
				Width:  obj.Width,
				Height: obj.Height,
			})
		}
		return zones, nil
	}

	return nil, fmt.Errorf("map has no layer named %q", layerName)
}
