package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMap = `{
	"width": 40,
	"height": 30,
	"layers": [
		{
			"name": "Ground",
			"type": "tilelayer",
			"data": [1, 2, 3]
		},
		{
			"name": "Zones",
			"type": "objectgroup",
			"objects": [
				{"name": "meeting-room", "x": 0, "y": 0, "width": 200, "height": 150},
				{"name": "lounge", "x": 200, "y": 0, "width": 100, "height": 150}
			]
		}
	]
}`

func TestParseZones(t *testing.T) {
	zones, err := ParseZones([]byte(testMap), "Zones")
	require.NoError(t, err)
	require.Len(t, zones, 2)

	// layer object order is preserved
	assert.Equal(t, "meeting-room", zones[0].Name)
	assert.Equal(t, "lounge", zones[1].Name)
	assert.Equal(t, float64(200), zones[1].X)
	assert.Equal(t, float64(150), zones[0].Height)
}

func TestParseZones_MissingLayer(t *testing.T) {
	_, err := ParseZones([]byte(testMap), "Doors")
	assert.ErrorContains(t, err, "no layer named")
}

func TestParseZones_WrongLayerType(t *testing.T) {
	_, err := ParseZones([]byte(testMap), "Ground")
	assert.ErrorContains(t, err, "expected an object layer")
}

func TestParseZones_UnnamedObject(t *testing.T) {
	raw := `{"layers": [{"name": "Zones", "type": "objectgroup", "objects": [{"x": 1, "y": 2, "width": 3, "height": 4}]}]}`
	_, err := ParseZones([]byte(raw), "Zones")
	assert.ErrorContains(t, err, "unnamed zone object")
}

func TestParseZones_InvalidJSON(t *testing.T) {
	_, err := ParseZones([]byte("{"), "Zones")
	assert.Error(t, err)
}

func TestLoadZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.json")
	require.NoError(t, os.WriteFile(path, []byte(testMap), 0o644))

	zones, err := LoadZones(path, "Zones")
	require.NoError(t, err)
	assert.Len(t, zones, 2)

	_, err = LoadZones(filepath.Join(t.TempDir(), "missing.json"), "Zones")
	assert.Error(t, err)
}
