// Package seed fills an empty store with sample Perth clients and jobs.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/repository"
)

type sampleJob struct {
	client   int
	daysAgo  int
	jobTypes []string
	status   models.Status
	priority models.Priority
	notes    string
	timeIn   string
	timeOut  string
}

func sampleClients() []models.Client {
	return []models.Client{
		{
			Name:     "Pinnacle Mining Solutions",
			Contact:  "Sarah Bennett",
			Phone:    "08 9481 2200",
			Email:    "sarah.bennett@pinnaclemining.com.au",
			Address:  "1 William Street",
			Suburb:   "Perth",
			Postcode: "6000",
			Notes:    "Large corporate client, 80+ workstations across 3 floors. Security door entry, contact Sarah on arrival.",
			Tags:     []string{"Corporate", "Priority"},
		},
		{
			Name:     "Fremantle Medical Centre",
			Contact:  "Dr James Nolan",
			Phone:    "08 9335 1100",
			Email:    "admin@fremantlemedical.com.au",
			Address:  "12 High Street",
			Suburb:   "Fremantle",
			Postcode: "6160",
			Notes:    "Medical practice with strict infection control. Do not enter clinical areas without PPE. After-hours access via Dr Nolan.",
			Tags:     []string{"Medical"},
		},
		{
			Name:     "Scarborough Beach Bar & Grill",
			Contact:  "Mike Torrisi",
			Phone:    "0412 334 009",
			Email:    "mike@scarboroughbbg.com.au",
			Address:  "150 Scarborough Beach Road",
			Suburb:   "Scarborough",
			Postcode: "6019",
			Notes:    "POS system + CCTV. Best time to service is Tuesday mornings before 10am.",
			Tags:     []string{"Hospitality"},
		},
		{
			Name:     "Joondalup City Council IT",
			Contact:  "Rachel Kim",
			Phone:    "08 9400 4000",
			Email:    "rkim@joondalup.wa.gov.au",
			Address:  "90 Boas Avenue",
			Suburb:   "Joondalup",
			Postcode: "6027",
			Notes:    "Government site, induction required before first visit. Parking behind building on Boas Ave.",
			Tags:     []string{"Government"},
		},
		{
			Name:     "Rockingham Auto Parts",
			Contact:  "Dave Carpenter",
			Phone:    "08 9527 8811",
			Email:    "dave@rockauto.com.au",
			Address:  "45 Dixon Road",
			Suburb:   "Rockingham",
			Postcode: "6168",
			Notes:    "Small business with 3 POS terminals and a NAS. Dave is very hands-on and likes updates.",
			Tags:     []string{"SMB"},
		},
	}
}

var sampleLocations = []models.GeoPoint{
	{Lat: -31.9530, Lng: 115.8590},
	{Lat: -32.0550, Lng: 115.7480},
	{Lat: -31.8960, Lng: 115.7590},
	{Lat: -31.7432, Lng: 115.7648},
	{Lat: -32.2769, Lng: 115.7312},
}

var sampleJobs = []sampleJob{
	{
		client:   0,
		daysAgo:  2,
		jobTypes: []string{"Desktop Deployment", "Office 365 Setup", "User Account Setup"},
		status:   models.StatusCompleted,
		priority: models.PriorityHigh,
		notes:    "Deployed 12 new Dell OptiPlex 7090s on Level 3. Installed Windows 11 Pro, Office 365, and configured AD accounts. All machines joined to domain and tested successfully.",
		timeIn:   "08:00",
		timeOut:  "16:30",
	},
	{
		client:   1,
		daysAgo:  5,
		jobTypes: []string{"Server Maintenance", "Data Backup"},
		status:   models.StatusCompleted,
		priority: models.PriorityMedium,
		notes:    "Monthly server maintenance. Replaced failing drive in RAID array, ran full backup to offsite NAS. Server health checks all clear.",
		timeIn:   "07:30",
		timeOut:  "10:00",
	},
	{
		client:   2,
		daysAgo:  1,
		jobTypes: []string{"CCTV Installation", "Network Configuration"},
		status:   models.StatusInProgress,
		priority: models.PriorityMedium,
		notes:    "Installing 8-camera CCTV system. Camera 4 and 5 still need cabling through ceiling. Return visit needed to finish.",
		timeIn:   "09:00",
		timeOut:  "17:00",
	},
	{
		client:   3,
		daysAgo:  0,
		jobTypes: []string{"WiFi Troubleshooting", "Network Configuration"},
		status:   models.StatusPending,
		priority: models.PriorityLow,
		notes:    "Reported intermittent WiFi dropouts in east wing. Investigate AP coverage and channel interference.",
	},
}

// Result counts the records a seed wrote.
type Result struct {
	Clients int
	Jobs    int
}

// IfEmpty writes the sample data when the store holds no clients. Job dates
// are relative to today. It reports zero counts when the store was left alone.
func IfEmpty(ctx context.Context, repo *repository.Repository, today time.Time) (Result, error) {
	if len(repo.Clients.List(ctx)) > 0 {
		return Result{}, nil
	}

	var res Result
	clients := sampleClients()
	for i := range clients {
		clients[i].SetLocation(&sampleLocations[i])
		if _, err := repo.Clients.Save(ctx, &clients[i]); err != nil {
			return res, fmt.Errorf("failed to seed client %q: %w", clients[i].Name, err)
		}
		res.Clients++
	}

	for _, s := range sampleJobs {
		job := models.NewJob(&clients[s.client], today.AddDate(0, 0, -s.daysAgo).Format(time.DateOnly))
		job.JobTypes = s.jobTypes
		job.Status = s.status
		job.Priority = s.priority
		job.Notes = s.notes
		job.TimeIn = s.timeIn
		job.TimeOut = s.timeOut
		if _, err := repo.Jobs.Save(ctx, job); err != nil {
			return res, fmt.Errorf("failed to seed job for %q: %w", job.ClientName, err)
		}
		res.Jobs++
	}

	slog.Info("Seeded sample data", "clients", res.Clients, "jobs", res.Jobs)
	return res, nil
}
