package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allNames(app string) []string {
	return append([]string{app}, InfrastructureNames()...)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"rapl", RAPL},
		{"global", Global},
		{"hwpc-sensor-container", HWPCSensor},
		{"influx_dest", InfluxDest},
		{"mongo_source", MongoSource},
		{"smartwatts-formula", SmartWattsFormula},
		{"crate-container-cd", Application},
		{"RAPL", Application},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestInfrastructureNames(t *testing.T) {
	assert.Equal(t, []string{
		"global",
		"hwpc-sensor-container",
		"influx_dest",
		"mongo_source",
		"rapl",
		"smartwatts-formula",
	}, InfrastructureNames())
}

func TestMetaColorsAreDistinct(t *testing.T) {
	seen := make(map[any]Category)
	for _, c := range Categories {
		meta := MetaOf(c)
		assert.Equal(t, c, meta.Category)
		require.NotNil(t, meta.Color)
		r, g, b, a := meta.Color.RGBA()
		key := [4]uint32{r, g, b, a}
		if prev, ok := seen[key]; ok {
			t.Fatalf("%s and %s share a color", prev, c)
		}
		seen[key] = c
	}
}

func TestResolve(t *testing.T) {
	res, err := Resolve(allNames("crate-mio-container-master"))
	require.NoError(t, err)
	assert.Len(t, res, len(Categories))
	assert.Equal(t, "crate-mio-container-master", res[Application])
	assert.Equal(t, "smartwatts-formula", res[SmartWattsFormula])
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  error
	}{
		{"missing rapl", []string{"app", "global", "hwpc-sensor-container", "influx_dest", "mongo_source", "smartwatts-formula"}, ErrMissingCategory},
		{"missing application", InfrastructureNames(), ErrMissingCategory},
		{"two applications", append(allNames("app-a"), "app-b"), ErrAmbiguousApplication},
		{"duplicate", append(allNames("app"), "rapl"), ErrDuplicateSensor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.names)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolveMissingListsLabels(t *testing.T) {
	_, err := Resolve([]string{"app", "global"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rapl")
	assert.Contains(t, err.Error(), "influx_dest")
	assert.NotContains(t, err.Error(), "global,")
}

func TestKeysRoundTrip(t *testing.T) {
	res, err := Resolve(allNames("crate-container-cd"))
	require.NoError(t, err)

	keys := res.Keys()
	assert.Equal(t, "crate-container-cd", keys["application"])
	assert.Equal(t, "hwpc-sensor-container", keys["hwpc"])
	assert.Equal(t, res, FromKeys(keys))
}
