package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Requester roles, ordered from widest to narrowest geographic scope.
const (
	RoleRegionAdmin       = "r_admin"
	RoleProvinceAdmin     = "p_admin"
	RoleMunicipalityAdmin = "m_admin"
	RoleEstablishment     = "establishment"
)

// Narrowing value meaning "no further restriction below my own scope".
const ScopeAll = "ALL"

// Requester is the authenticated identity extracted from the JWT claims.
type Requester struct {
	UserID          string `json:"user_id"`
	Role            string `json:"role"`
	Region          string `json:"region"`
	Province        string `json:"province"`
	Municipality    string `json:"municipality"`
	EstablishmentID int64  `json:"establishment_id"`
}

// GeographicScope is the resolved geographic filter for a request.
// Empty fields are wildcards. It is produced once per request by the
// scope resolver and never mutated afterwards.
type GeographicScope struct {
	Region          string
	Province        string
	Municipality    string
	EstablishmentID int64
}

// SpansMultipleMunicipalities reports whether the scope is wider than a
// single municipality.
func (s GeographicScope) SpansMultipleMunicipalities() bool {
	return s.Municipality == "" && s.EstablishmentID == 0
}

// Establishment is a registered tourist accommodation business.
// Owned by the registration workflow; read-only here.
type Establishment struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Region       string `json:"region"`
	Province     string `json:"province"`
	Municipality string `json:"municipality"`
	Barangay     string `json:"barangay"`
	RoomCount    int    `json:"room_count"`
	Status       string `json:"status"`
	Active       bool   `json:"active"`
}

// Submission is one establishment's monthly occupancy report. RoomCount is
// the room count declared for that period, not the establishment's live one.
type Submission struct {
	ID              int64     `json:"id"`
	EstablishmentID int64     `json:"establishment_id"`
	Month           int       `json:"month"`
	Year            int       `json:"year"`
	RoomCount       int       `json:"room_count"`
	SubmittedAt     time.Time `json:"submitted_at"`
	Deadline        time.Time `json:"deadline"`
	PenaltyPaid     bool      `json:"penalty_paid"`
	ReceiptNo       *string   `json:"receipt_no,omitempty"`
}

// DailyMetric carries one day's totals for a submission.
type DailyMetric struct {
	SubmissionID   int64 `json:"submission_id"`
	Day            int   `json:"day"`
	CheckIns       int   `json:"check_ins"`
	OvernightStays int   `json:"overnight_stays"`
	OccupiedRooms  int   `json:"occupied_rooms"`
}

// Guest is one guest record attached to a daily metric. Only records with
// CheckIn set count toward nationality and demographic totals.
type Guest struct {
	DailyMetricID int64  `json:"daily_metric_id"`
	Nationality   string `json:"nationality"`
	Gender        string `json:"gender"`
	Age           int    `json:"age"`
	Status        string `json:"status"`
	RoomNumber    string `json:"room_number"`
	CheckIn       bool   `json:"check_in"`
}

// MonthlyRollup is one month's aggregate for a scope. Computed on demand,
// never persisted.
type MonthlyRollup struct {
	Month                int     `json:"month"`
	TotalCheckIns        int     `json:"total_check_ins"`
	TotalOvernightStays  int     `json:"total_overnight_stays"`
	TotalOccupiedRooms   int     `json:"total_occupied_rooms"`
	AvgGuestNights       float64 `json:"avg_guest_nights"`
	AvgRoomOccupancyRate float64 `json:"avg_room_occupancy_rate"`
	AvgGuestsPerRoom     float64 `json:"avg_guests_per_room"`
	TotalRooms           int     `json:"total_rooms"`
	TotalSubmissions     int     `json:"total_submissions"`
	SubmissionRate       float64 `json:"submission_rate"`
}

// MonthlyCheckIns is the slim per-month row for the check-ins endpoint.
type MonthlyCheckIns struct {
	Month         int `json:"month"`
	TotalCheckIns int `json:"total_check_ins"`
}

// NationalityCount is one nationality's counts for a scope and period.
type NationalityCount struct {
	Nationality string `json:"nationality"`
	Count       int    `json:"count"`
	MaleCount   int    `json:"male_count"`
	FemaleCount int    `json:"female_count"`
}

// NationalityClass is the taxonomy bucket a nationality string maps to.
type NationalityClass struct {
	TopRegion            string `json:"top_region"`
	SubRegion            string `json:"sub_region"`
	IsPhilippineResident bool   `json:"is_philippine_resident"`
	IsOverseasFilipino   bool   `json:"is_overseas_filipino"`
}

// CountryCount is one recognized country's guest count within a subregion.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// SubRegionDistribution groups country counts under one subregion.
type SubRegionDistribution struct {
	SubRegion string         `json:"sub_region"`
	Count     int            `json:"count"`
	Countries []CountryCount `json:"countries"`
}

// RegionDistribution groups subregion counts under one taxonomy region.
type RegionDistribution struct {
	Region     string                  `json:"region"`
	Count      int                     `json:"count"`
	SubRegions []SubRegionDistribution `json:"sub_regions"`
}

// NationalityDistribution is the full taxonomy rollup for a scope and period.
// GrandTotal always equals PhilippineResidents + NonPhilippineResidents +
// OverseasFilipinos.
type NationalityDistribution struct {
	Regions                []RegionDistribution `json:"regions"`
	PhilippineResidents    int                  `json:"philippine_residents"`
	NonPhilippineResidents int                  `json:"non_philippine_residents"`
	OverseasFilipinos      int                  `json:"overseas_filipinos"`
	GrandTotal             int                  `json:"grand_total"`
}

// DemographicCount is one (gender, age group, guest status) bucket.
type DemographicCount struct {
	Gender   string `json:"gender"`
	AgeGroup string `json:"age_group"`
	Status   string `json:"status"`
	Count    int    `json:"count"`
}

// ComplianceStatus is the lateness/penalty classification of a submission.
type ComplianceStatus struct {
	IsLate      bool `json:"is_late"`
	PenaltyOwed bool `json:"penalty_owed"`
	PenaltyPaid bool `json:"penalty_paid"`
}

// ComplianceEntry is one row of the compliance listing.
type ComplianceEntry struct {
	Submission
	EstablishmentName string           `json:"establishment_name"`
	Compliance        ComplianceStatus `json:"compliance"`
}

// ComplianceListResponse is the paginated compliance listing.
type ComplianceListResponse struct {
	Entries []ComplianceEntry `json:"entries"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
}

// PenaltyPaymentRequest records a penalty payment for a late submission.
type PenaltyPaymentRequest struct {
	SubmissionID int64  `json:"submission_id"`
	ReceiptNo    string `json:"receipt_no"`
	AccessCode   string `json:"access_code"`
}

// PenaltyPaymentResponse reports the submission's state after recording.
type PenaltyPaymentResponse struct {
	SubmissionID int64           `json:"submission_id"`
	PenaltyPaid  bool            `json:"penalty_paid"`
	ReceiptNo    string          `json:"receipt_no"`
	Amount       decimal.Decimal `json:"amount"`
	AlreadyPaid  bool            `json:"already_paid"`
}

// SubmissionBatch is the payload broadcast to websocket clients when new
// submissions arrive.
type SubmissionBatch struct {
	Submissions []ComplianceEntry `json:"submissions"`
	Count       int               `json:"count"`
	FromID      int64             `json:"from_id"`
	ToID        int64             `json:"to_id"`
}

// BroadcastMessage is the websocket envelope.
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp,omitempty"`
	ConnectedClients int    `json:"connected_clients,omitempty"`
	LastBroadcastID  int64  `json:"last_broadcast_id,omitempty"`
}
