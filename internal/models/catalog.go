package models

// DefaultChecklist is seeded onto every new job saved without a checklist.
var DefaultChecklist = []string{
	"Check in with site contact",
	"Document existing setup / take photos",
	"Complete work",
	"Test all functionality",
	"Update asset register",
	"Client sign-off obtained",
	"Clean up workspace",
}

// JobTypes is the built-in catalogue of job categories.
var JobTypes = []string{
	// Desktop & Laptops
	"Desktop Deployment",
	"Laptop Setup",
	"PC Rebuild / Upgrade",
	// Servers & Infrastructure
	"Server Installation",
	"Server Maintenance",
	"NAS / Storage Setup",
	// Network
	"Network Configuration",
	"WiFi Setup",
	"WiFi Troubleshooting",
	"Cabling & Patching",
	"VPN Setup",
	// Software
	"Software Installation",
	"Windows Update / Patching",
	"Office 365 Setup",
	"Email Configuration",
	"Antivirus / Security",
	"Virus / Malware Removal",
	// Hardware
	"Hardware Repair",
	"Hardware Replacement",
	"Printer Setup",
	"Printer Troubleshooting",
	"UPS Installation",
	// Security & Surveillance
	"CCTV Installation",
	"Security System Setup",
	"Access Control",
	// Communications
	"VoIP / Phone System",
	"Remote Support Setup",
	// Data
	"Data Backup",
	"Data Recovery",
	"Data Migration",
	// Users & Admin
	"User Account Setup",
	"Active Directory",
	"Remote Desktop",
	// Other
	"POS System",
	"Site Survey",
	"User Training",
	"General IT Support",
}
