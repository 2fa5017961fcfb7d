package services

import (
	"database/sql"
	"fmt"
	"time"

	"occupancy-dashboard/config"
	"occupancy-dashboard/models"

	_ "github.com/go-sql-driver/mysql"
)

// DatabaseService manages the database connection and the queries shared
// across the domain services.
type DatabaseService struct {
	db *sql.DB
}

// NewDatabaseService opens a pooled connection to the submission store.
func NewDatabaseService(cfg *config.Config) (*DatabaseService, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DatabaseService{db: db}, nil
}

// NewDatabaseServiceFromDB wraps an existing connection. Used by tests.
func NewDatabaseServiceFromDB(db *sql.DB) *DatabaseService {
	return &DatabaseService{db: db}
}

// Close closes the database connection.
func (s *DatabaseService) Close() error {
	return s.db.Close()
}

// scopeConditions translates a geographic scope into WHERE conditions on
// the establishments table (aliased e). Empty scope fields add nothing.
func scopeConditions(scope models.GeographicScope) ([]string, []interface{}) {
	var conds []string
	var args []interface{}

	if scope.Region != "" {
		conds = append(conds, "e.region = ?")
		args = append(args, scope.Region)
	}
	if scope.Province != "" {
		conds = append(conds, "e.province = ?")
		args = append(args, scope.Province)
	}
	if scope.Municipality != "" {
		conds = append(conds, "e.municipality = ?")
		args = append(args, scope.Municipality)
	}
	if scope.EstablishmentID != 0 {
		conds = append(conds, "e.id = ?")
		args = append(args, scope.EstablishmentID)
	}

	return conds, args
}

// ProvinceInRegion reports whether any registered establishment places the
// given province inside the given region.
func (s *DatabaseService) ProvinceInRegion(region, province string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(
		SELECT 1 FROM establishments WHERE region = ? AND province = ?)`,
		region, province).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check province %q in region %q: %w", province, region, err)
	}
	return exists, nil
}

// MunicipalityInProvince reports whether any registered establishment
// places the given municipality inside the given province.
func (s *DatabaseService) MunicipalityInProvince(province, municipality string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(
		SELECT 1 FROM establishments WHERE province = ? AND municipality = ?)`,
		province, municipality).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check municipality %q in province %q: %w", municipality, province, err)
	}
	return exists, nil
}

// MunicipalityInRegion reports whether any registered establishment places
// the given municipality inside the given region.
func (s *DatabaseService) MunicipalityInRegion(region, municipality string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(
		SELECT 1 FROM establishments WHERE region = ? AND municipality = ?)`,
		region, municipality).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check municipality %q in region %q: %w", municipality, region, err)
	}
	return exists, nil
}

// EligibleEstablishmentCount counts approved and active establishments in
// scope. This is the submission-rate denominator for every month of a
// requested year.
func (s *DatabaseService) EligibleEstablishmentCount(scope models.GeographicScope) (int, error) {
	query := `SELECT COUNT(*) FROM establishments e WHERE e.status = 'approved' AND e.active = 1`
	conds, args := scopeConditions(scope)
	for _, cond := range conds {
		query += " AND " + cond
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count eligible establishments: %w", err)
	}
	return count, nil
}

// LatestSubmissionID returns the highest submission id, or 0 on an empty
// table. Used to initialize the live feed cursor.
func (s *DatabaseService) LatestSubmissionID() (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT COALESCE(MAX(id), 0) FROM submissions").Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest submission id: %w", err)
	}
	return id, nil
}

// SubmissionsSince retrieves submissions with id greater than the cursor,
// joined with their establishment names, in ascending id order.
func (s *DatabaseService) SubmissionsSince(sinceID int64) ([]models.ComplianceEntry, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.establishment_id, e.name, s.month, s.year, s.room_count,
		       s.submitted_at, s.deadline, s.penalty_paid, s.receipt_no
		FROM submissions s
		JOIN establishments e ON e.id = s.establishment_id
		WHERE s.id > ?
		ORDER BY s.id ASC`, sinceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query new submissions: %w", err)
	}
	defer rows.Close()

	entries := []models.ComplianceEntry{}
	for rows.Next() {
		entry, err := scanComplianceEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating new submissions: %w", err)
	}

	return entries, nil
}

// scanComplianceEntry scans one submission row joined with its
// establishment name. Compliance flags are filled in by the caller.
func scanComplianceEntry(rows *sql.Rows) (models.ComplianceEntry, error) {
	var entry models.ComplianceEntry
	var penaltyPaid int
	var receiptNo sql.NullString

	err := rows.Scan(
		&entry.ID,
		&entry.EstablishmentID,
		&entry.EstablishmentName,
		&entry.Month,
		&entry.Year,
		&entry.RoomCount,
		&entry.SubmittedAt,
		&entry.Deadline,
		&penaltyPaid,
		&receiptNo,
	)
	if err != nil {
		return entry, fmt.Errorf("failed to scan submission: %w", err)
	}

	entry.PenaltyPaid = penaltyPaid != 0
	if receiptNo.Valid {
		entry.ReceiptNo = &receiptNo.String
	}

	return entry, nil
}
