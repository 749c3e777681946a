package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stromtarif/stromtarif/pkg/types"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	require.Len(t, c.Devices, 9)

	baseload := map[string]bool{}
	for _, d := range c.Devices {
		baseload[d.Name] = d.Baseload
	}
	assert.True(t, baseload["Kühlschrank"])
	assert.True(t, baseload["Gefrierschrank"])
	assert.True(t, baseload["Aquarium"])
	assert.False(t, baseload["Waschmaschine"])
	assert.False(t, baseload["Beleuchtung"])
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"catalog.yml": `
devices:
  - id: pumpe
    name: Pumpe
    watts: 50
    usageAmount: 2
    usagePeriod: daily
`,
		"catalog.toml": `
[[devices]]
id = "pumpe"
name = "Pumpe"
watts = 50.0
usageAmount = 2.0
usagePeriod = "daily"

  [[devices.windows]]
  startHour = 22
  endHour = 6
`,
		"catalog.json": `{"devices":[{"id":"pumpe","name":"Pumpe","watts":50,"usageAmount":2,"usagePeriod":"daily"}]}`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		c, err := LoadCatalog(path)
		require.NoError(t, err, name)
		require.Len(t, c.Devices, 1, name)
		assert.Equal(t, "Pumpe", c.Devices[0].Name, name)
		assert.Equal(t, 50.0, c.Devices[0].Watts, name)
		assert.Equal(t, types.UsageDaily, c.Devices[0].UsagePeriod, name)
	}

	c, err := LoadCatalog(filepath.Join(dir, "catalog.toml"))
	require.NoError(t, err)
	assert.Equal(t, []types.TimeWindow{{StartHour: 22, EndHour: 6}}, c.Devices[0].Windows)

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseCatalog([]byte(`devices: []`), "ini")
		assert.Error(t, err)

		_, err = ParseCatalog([]byte(`{"devices":[{"id":"a","name":"A","watts":-1,"baseload":true}]}`), "json")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Messages, 1)

		_, err = ParseCatalog([]byte(`{"devices":[{"id":"a","name":"A","baseload":true},{"id":"a","name":"B","baseload":true}]}`), "json")
		assert.ErrorContains(t, err, "duplicate")

		_, err = ParseCatalog([]byte(`{"devices":[{"name":"A","baseload":true}]}`), "json")
		assert.ErrorContains(t, err, "no id")
	})
}

func TestRegistry(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	r := New(c)
	r.newID = func() string { return "new-id" }

	d, err := r.Add(types.Device{Name: "  Wallbox ", Watts: 11000, UsageAmount: 3, UsagePeriod: types.UsageWeekly})
	require.NoError(t, err)
	assert.Equal(t, "new-id", d.ID)
	assert.Equal(t, "Wallbox", d.Name)

	got, err := r.Get("new-id")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	list := r.List()
	assert.Len(t, list, 10)
	assert.Equal(t, "Aquarium", list[0].Name)
	assert.Equal(t, "Wallbox", list[len(list)-1].Name)

	d.Watts = 7400
	updated, err := r.Update("new-id", d)
	require.NoError(t, err)
	assert.Equal(t, 7400.0, updated.Watts)

	_, err = r.Update("missing", d)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	require.NoError(t, r.Remove("new-id"))
	assert.ErrorIs(t, r.Remove("new-id"), ErrDeviceNotFound)
	_, err = r.Get("new-id")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	t.Run("Validation", func(t *testing.T) {
		_, err := r.Add(types.Device{Watts: -1, UsageAmount: -2, UsagePeriod: "monthly", Windows: []types.TimeWindow{{StartHour: 0, EndHour: 24}}})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Messages, 5)
	})

	t.Run("CatalogIsolation", func(t *testing.T) {
		other := New(c)
		fridge, err := other.Get("kuehlschrank")
		require.NoError(t, err)
		fridge.Watts = 1
		_, err = other.Update("kuehlschrank", fridge)
		require.NoError(t, err)

		orig, err := r.Get("kuehlschrank")
		require.NoError(t, err)
		assert.Equal(t, 150.0, orig.Watts)
	})
}

func TestSessions(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSessions(c, time.Hour)
	s.now = func() time.Time { return now }

	id, r := s.Get("")
	require.NotEmpty(t, id)
	_, err = r.Add(types.Device{Name: "Sauna", Watts: 6000, UsageAmount: 1, UsagePeriod: types.UsageWeekly})
	require.NoError(t, err)

	sameID, same := s.Get(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, r, same)

	otherID, other := s.Get("unknown")
	assert.NotEqual(t, id, otherID)
	assert.Len(t, other.List(), 9)
	assert.Equal(t, 2, s.Len())

	looked, ok := s.Lookup(id)
	require.True(t, ok)
	assert.Same(t, r, looked)

	now = now.Add(30 * time.Minute)
	s.Get(id)
	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	now = now.Add(2 * time.Hour)
	_, ok = s.Lookup(id)
	assert.False(t, ok)
	newID, fresh := s.Get(id)
	assert.NotEqual(t, id, newID)
	assert.Len(t, fresh.List(), 9)
}

func TestSessionsEphemeral(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	s := NewSessions(c, time.Hour)

	r := s.Ephemeral()
	assert.Len(t, r.List(), 9)
	_, err = r.Add(types.Device{Name: "Sauna", Watts: 6000, UsageAmount: 1, UsagePeriod: types.UsageWeekly})
	require.NoError(t, err)

	assert.Len(t, s.Ephemeral().List(), 9)
	assert.Equal(t, 0, s.Len())
}
