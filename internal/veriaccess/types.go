package veriaccess

import (
	"strings"
	"time"
)

// AccessPoint is a door, gate or turnstile.
type AccessPoint struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location"`
	IsActive     bool   `json:"is_active"`
	MaxCapacity  int    `json:"max_capacity"`
	CurrentCount int    `json:"current_count"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// AccessZone groups access points under one capacity.
type AccessZone struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	AccessPoints []int64 `json:"access_points,omitempty"`
	MaxCapacity  int     `json:"max_capacity"`
	CurrentCount int     `json:"current_count"`
}

// AccessLog is one granted or denied passage.
type AccessLog struct {
	ID                int64     `json:"id"`
	User              *int64    `json:"user,omitempty"`
	UserDetail        *UserRef  `json:"user_detail,omitempty"`
	AccessPoint       int64     `json:"access_point"`
	AccessPointDetail *PointRef `json:"access_point_detail,omitempty"`
	CardID            string    `json:"card_id,omitempty"`
	Timestamp         string    `json:"timestamp"`
	Status            string    `json:"status"`
	Reason            string    `json:"reason,omitempty"`
	Direction         string    `json:"direction"`
}

// Granted reports whether the passage was allowed.
func (l AccessLog) Granted() bool { return l.Status == "granted" }

// ParsedTimestamp returns the passage time, or the zero time.
func (l AccessLog) ParsedTimestamp() time.Time { return parseTime(l.Timestamp) }

// Who returns the best available label for the person involved.
func (l AccessLog) Who() string {
	if l.UserDetail == nil {
		if l.CardID != "" {
			return "card " + l.CardID
		}
		return "unknown"
	}
	if l.UserDetail.FullName != "" {
		return l.UserDetail.FullName
	}
	return l.UserDetail.Username
}

// Where returns the access point name when the detail is embedded.
func (l AccessLog) Where() string {
	if l.AccessPointDetail != nil && l.AccessPointDetail.Name != "" {
		return l.AccessPointDetail.Name
	}
	return ""
}

// UserRef is the embedded user summary on logs and passes.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// PointRef is the embedded access point summary on logs.
type PointRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Visitor statuses.
const (
	VisitorPending  = "pending"
	VisitorApproved = "approved"
	VisitorInside   = "inside"
	VisitorOutside  = "outside"
	VisitorDenied   = "denied"
)

// Visitor is a registered guest.
type Visitor struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	IDNumber        string `json:"id_number"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Company         string `json:"company,omitempty"`
	Photo           string `json:"photo,omitempty"`
	VisitorType     string `json:"visitor_type,omitempty"`
	ApartmentNumber string `json:"apartment_number,omitempty"`
	EntryDate       string `json:"entry_date,omitempty"`
	ExitDate        string `json:"exit_date,omitempty"`
	Status          string `json:"status,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// FullName joins first and last name.
func (v Visitor) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// VisitorAccess is a time-boxed pass with a QR code.
type VisitorAccess struct {
	ID          int64     `json:"id"`
	Visitor     int64     `json:"visitor"`
	Host        int64     `json:"host"`
	HostDetail  *UserRef  `json:"host_detail,omitempty"`
	Purpose     string    `json:"purpose"`
	ValidFrom   string    `json:"valid_from"`
	ValidTo     string    `json:"valid_to"`
	AccessZones []int64   `json:"access_zones"`
	ZonesDetail []ZoneRef `json:"access_zones_detail,omitempty"`
	QRCode      string    `json:"qr_code"`
	IsUsed      bool      `json:"is_used"`
	CreatedAt   string    `json:"created_at,omitempty"`
}

// ZoneRef is an embedded zone summary.
type ZoneRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// QRImage holds a rendered QR code, usually a data URI.
type QRImage struct {
	Image string `json:"qr_code_image"`
}

// QRValidation is the backend's verdict on a scanned code.
type QRValidation struct {
	Valid   bool   `json:"valid"`
	Detail  string `json:"detail,omitempty"`
	Visitor string `json:"visitor,omitempty"`
}

// BuildingOccupancy is the live headcount.
type BuildingOccupancy struct {
	ID             int64  `json:"id"`
	ResidentsCount int    `json:"residents_count"`
	VisitorsCount  int    `json:"visitors_count"`
	TotalCount     int    `json:"total_count"`
	MaxCapacity    int    `json:"max_capacity"`
	LastUpdated    string `json:"last_updated"`
}

// Percent returns occupancy as a percentage of capacity.
func (o BuildingOccupancy) Percent() float64 {
	if o.MaxCapacity <= 0 {
		return 0
	}
	return float64(o.TotalCount) * 100 / float64(o.MaxCapacity)
}

// OccupancyStats is the summary served by /access/stats/occupancy/.
type OccupancyStats struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Detail is the {"detail": ...} acknowledgement many actions return.
type Detail struct {
	Detail string `json:"detail"`
}

// Parking.

type ParkingArea struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	MaxCapacity    int    `json:"max_capacity"`
	CurrentCount   int    `json:"current_count"`
	IsActive       bool   `json:"is_active"`
	AvailableSpots int    `json:"available_spots"`
	VehiclesCount  int    `json:"vehicles_count,omitempty"`
}

type Vehicle struct {
	ID                int64        `json:"id"`
	User              int64        `json:"user"`
	LicensePlate      string       `json:"license_plate"`
	Brand             string       `json:"brand"`
	Model             string       `json:"model"`
	Color             string       `json:"color"`
	ParkingArea       int64        `json:"parking_area"`
	ParkingAreaDetail *ParkingArea `json:"parking_area_detail,omitempty"`
	IsActive          bool         `json:"is_active"`
	CreatedAt         string       `json:"created_at,omitempty"`
	UpdatedAt         string       `json:"updated_at,omitempty"`
}

// NewVehicle is the create body. User defaults to the signed-in user.
type NewVehicle struct {
	LicensePlate string `json:"license_plate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Color        string `json:"color"`
	ParkingArea  int64  `json:"parking_area"`
	User         int64  `json:"user,omitempty"`
}

type ParkingLog struct {
	ID          int64  `json:"id"`
	Vehicle     int64  `json:"vehicle"`
	ParkingArea int64  `json:"parking_area"`
	Timestamp   string `json:"timestamp"`
	Direction   string `json:"direction"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

type ParkingAccess struct {
	ID          int64   `json:"id"`
	Vehicle     int64   `json:"vehicle"`
	ParkingArea int64   `json:"parking_area"`
	ValidFrom   string  `json:"valid_from"`
	ValidTo     *string `json:"valid_to"`
	IsActive    bool    `json:"is_active,omitempty"`
}

type ParkingStats struct {
	TotalCapacity       int               `json:"total_capacity"`
	CurrentOccupancy    int               `json:"current_occupancy"`
	AvailableSpots      int               `json:"available_spots"`
	OccupancyPercentage float64           `json:"occupancy_percentage"`
	Areas               []ParkingAreaStat `json:"areas"`
}

type ParkingAreaStat struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Occupied  int    `json:"occupied"`
	Available int    `json:"available"`
}

// Security.

// Incident severities and statuses.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"

	IncidentNew        = "new"
	IncidentInProgress = "in_progress"
	IncidentResolved   = "resolved"
	IncidentClosed     = "closed"
)

type Incident struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	ReportedBy  int64  `json:"reported_by"`
	AssignedTo  *int64 `json:"assigned_to,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
}

type NewIncident struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Severity    string `json:"severity"`
}

type IncidentComment struct {
	ID              int64  `json:"id"`
	Incident        int64  `json:"incident"`
	User            int64  `json:"user"`
	Comment         string `json:"comment"`
	CreatedAt       string `json:"created_at"`
	IsSystemComment bool   `json:"is_system_comment"`
}

type EmergencyProtocol struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	IsActive     bool   `json:"is_active"`
	CreatedBy    int64  `json:"created_by"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type EmergencyEvent struct {
	ID            int64   `json:"id"`
	Protocol      int64   `json:"protocol"`
	ActivatedBy   int64   `json:"activated_by"`
	Timestamp     string  `json:"timestamp"`
	EndedAt       string  `json:"ended_at,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	AffectedZones []int64 `json:"affected_zones"`
}

type SecurityRound struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	CreatedBy         int64  `json:"created_by"`
	CreatedAt         string `json:"created_at"`
	IsActive          bool   `json:"is_active"`
	EstimatedDuration int    `json:"estimated_duration"`
}

type RoundExecution struct {
	ID          int64  `json:"id"`
	Round       int64  `json:"round"`
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Notifications.

type Notification struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	NotificationType string `json:"notification_type"`
	Read             bool   `json:"read"`
	CreatedAt        string `json:"created_at"`
	Recipient        int64  `json:"recipient"`
}

// ParsedCreatedAt returns the creation time, or the zero time.
func (n Notification) ParsedCreatedAt() time.Time { return parseTime(n.CreatedAt) }

type NotificationPreferences struct {
	ID           int64 `json:"id"`
	User         int64 `json:"user"`
	EmailEnabled bool  `json:"email_enabled"`
	PushEnabled  bool  `json:"push_enabled"`
	SMSEnabled   bool  `json:"sms_enabled"`
	InAppEnabled bool  `json:"in_app_enabled"`
}

// Reports.

type ReportDefinition struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ReportType  string         `json:"report_type"`
	Period      string         `json:"period"`
	Filters     map[string]any `json:"filters"`
	CreatedBy   int64          `json:"created_by"`
	CreatedAt   string         `json:"created_at"`
}

type GeneratedReport struct {
	ID          int64  `json:"id"`
	Report      int64  `json:"report"`
	File        string `json:"file"`
	Format      string `json:"format"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	GeneratedAt string `json:"generated_at"`
	GeneratedBy int64  `json:"generated_by"`
}

// ReportParams selects the period and format of a generated report.
type ReportParams struct {
	PeriodStart string `json:"period_start,omitempty"`
	PeriodEnd   string `json:"period_end,omitempty"`
	Format      string `json:"format,omitempty"`
}

type ReportSchedule struct {
	ID         int64  `json:"id"`
	Report     int64  `json:"report"`
	IsActive   bool   `json:"is_active"`
	RunDaily   bool   `json:"run_daily"`
	RunWeekly  bool   `json:"run_weekly"`
	DayOfWeek  *int   `json:"day_of_week,omitempty"`
	RunMonthly bool   `json:"run_monthly"`
	DayOfMonth *int   `json:"day_of_month,omitempty"`
	RunTime    string `json:"run_time"`
	CreatedBy  int64  `json:"created_by,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999", value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
