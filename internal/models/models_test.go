package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_FullAddress(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		want   string
	}{
		{name: "complete", client: Client{Address: "12 High Street", Suburb: "Fremantle", Postcode: "6160"}, want: "12 High Street, Fremantle WA 6160"},
		{name: "street only", client: Client{Address: "12 High Street"}, want: "12 High Street"},
		{name: "no street", client: Client{Suburb: "Perth", Postcode: "6000"}, want: "Perth WA 6000"},
		{name: "no postcode", client: Client{Address: "1 William Street", Suburb: "Perth"}, want: "1 William Street, Perth WA"},
		{name: "empty", client: Client{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.client.FullAddress())
		})
	}
}

func TestClient_Location(t *testing.T) {
	c := NewClient("Acme")
	assert.Equal(t, []string{}, c.Tags)

	_, ok := c.Location()
	assert.False(t, ok)

	c.SetLocation(&GeoPoint{Lat: -31.95, Lng: 115.86})
	p, ok := c.Location()
	assert.True(t, ok)
	assert.Equal(t, GeoPoint{Lat: -31.95, Lng: 115.86}, p)

	c.SetLocation(nil)
	assert.Nil(t, c.Lat)
	assert.Nil(t, c.Lng)
}

func TestNewJob(t *testing.T) {
	client := &Client{ID: "c1", Name: "Acme", Address: "1 Main St", Suburb: "Perth", Postcode: "6000"}
	j := NewJob(client, "2024-03-15")

	assert.Equal(t, "c1", j.ClientID)
	assert.Equal(t, "Acme", j.ClientName)
	assert.Equal(t, "1 Main St, Perth WA 6000", j.ClientAddress)
	assert.Equal(t, StatusPending, j.Status)
	assert.Equal(t, PriorityMedium, j.Priority)
	assert.NotNil(t, j.JobTypes)
	assert.NotNil(t, j.Checklist)
	assert.NotNil(t, j.Photos)
	assert.NotNil(t, j.Documents)
}

func TestJob_Clone(t *testing.T) {
	j := &Job{
		JobTypes:  []string{"WiFi Setup"},
		Checklist: []ChecklistItem{{ID: "a", Label: "Test"}},
		Photos:    []Attachment{{Name: "p.jpg"}},
	}
	c := j.Clone()
	c.JobTypes[0] = "changed"
	c.Checklist[0].Checked = true
	c.Photos[0].Name = "changed"

	assert.Equal(t, "WiFi Setup", j.JobTypes[0])
	assert.False(t, j.Checklist[0].Checked)
	assert.Equal(t, "p.jpg", j.Photos[0].Name)
	assert.NotNil(t, c.Documents)
}

func TestJob_ChecklistProgress(t *testing.T) {
	j := &Job{Checklist: []ChecklistItem{{Checked: true}, {}, {Checked: true}}}
	done, total := j.ChecklistProgress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 3, total)
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusInProgress.Valid())
	assert.False(t, Status("archived").Valid())
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.False(t, Priority("urgent").Valid())
}

func TestSettings_EffectiveJobTypes(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, JobTypes, s.EffectiveJobTypes())

	s.JobTypes = []string{"Only this"}
	assert.Equal(t, []string{"Only this"}, s.EffectiveJobTypes())

	s.JobTypes = []string{}
	assert.Empty(t, s.EffectiveJobTypes(), "an empty override is kept")
}
