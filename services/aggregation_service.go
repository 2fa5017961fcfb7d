package services

import (
	"fmt"
	"strings"
	"time"

	"occupancy-dashboard/models"

	"github.com/apex/log"
)

// Grouping keys for the grouped nationality view.
const (
	GroupByEstablishment = "establishment"
	GroupByMunicipality  = "municipality"
)

// ComplianceFilters narrows the compliance listing. Zero values mean "no
// filter". Status is "late" or "on_time"; Penalty is "paid" or "unpaid".
type ComplianceFilters struct {
	Month   int
	Year    int
	Status  string
	Penalty string
	Search  string
	Page    int
	Limit   int
}

// AggregationService computes scoped rollups out of the submission store.
// It is stateless: every call reads, computes and returns, nothing is
// cached across requests.
type AggregationService struct {
	db         *DatabaseService
	classifier *NationalityClassifier
	compliance *ComplianceService
}

// NewAggregationService creates a new aggregation service.
func NewAggregationService(db *DatabaseService, classifier *NationalityClassifier, compliance *ComplianceService) *AggregationService {
	return &AggregationService{
		db:         db,
		classifier: classifier,
		compliance: compliance,
	}
}

// submissionTotals is one latest submission's summed daily metrics.
type submissionTotals struct {
	month          int
	roomCount      int
	checkIns       int
	overnightStays int
	occupiedRooms  int
}

// MonthlyRollups aggregates a year within scope into exactly 12 rows, one
// per calendar month, zero-filled for months without submissions. The
// three rate fields are simple arithmetic means across submissions, not
// room-weighted means; that mirrors the historical report semantics and
// changing it would silently change every published figure.
func (s *AggregationService) MonthlyRollups(scope models.GeographicScope, year int) ([]models.MonthlyRollup, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}

	eligible, err := s.db.EligibleEstablishmentCount(scope)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT s.month, s.room_count,
		       COALESCE(SUM(d.check_ins), 0),
		       COALESCE(SUM(d.overnight_stays), 0),
		       COALESCE(SUM(d.occupied_rooms), 0)
		FROM submission_latest sl
		JOIN submissions s ON s.id = sl.submission_id
		JOIN establishments e ON e.id = s.establishment_id
		LEFT JOIN daily_metrics d ON d.submission_id = s.id
		WHERE s.year = ?`
	args := []interface{}{year}

	conds, scopeArgs := scopeConditions(scope)
	for _, cond := range conds {
		query += " AND " + cond
	}
	args = append(args, scopeArgs...)
	query += " GROUP BY s.id, s.month, s.room_count"

	rows, err := s.db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submission totals: %w", err)
	}
	defer rows.Close()

	type monthAccum struct {
		checkIns       int
		overnightStays int
		occupiedRooms  int
		rooms          int
		submissions    int
		guestNights    float64
		occupancyRate  float64
		guestsPerRoom  float64
	}
	accums := make([]monthAccum, 13)

	for rows.Next() {
		var totals submissionTotals
		if err := rows.Scan(&totals.month, &totals.roomCount,
			&totals.checkIns, &totals.overnightStays, &totals.occupiedRooms); err != nil {
			return nil, fmt.Errorf("failed to scan submission totals: %w", err)
		}
		if totals.month < 1 || totals.month > 12 {
			log.Warnf("Skipping submission with month %d outside 1-12", totals.month)
			continue
		}

		accum := &accums[totals.month]
		accum.checkIns += totals.checkIns
		accum.overnightStays += totals.overnightStays
		accum.occupiedRooms += totals.occupiedRooms
		accum.rooms += totals.roomCount
		accum.submissions++
		accum.guestNights += safeDivide(float64(totals.overnightStays), float64(totals.checkIns))
		accum.occupancyRate += safeDivide(float64(totals.occupiedRooms),
			float64(totals.roomCount*daysInMonth(year, totals.month))) * 100
		accum.guestsPerRoom += safeDivide(float64(totals.overnightStays), float64(totals.occupiedRooms))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission totals: %w", err)
	}

	rollups := make([]models.MonthlyRollup, 0, 12)
	for month := 1; month <= 12; month++ {
		accum := accums[month]
		rollups = append(rollups, models.MonthlyRollup{
			Month:                month,
			TotalCheckIns:        accum.checkIns,
			TotalOvernightStays:  accum.overnightStays,
			TotalOccupiedRooms:   accum.occupiedRooms,
			AvgGuestNights:       safeDivide(accum.guestNights, float64(accum.submissions)),
			AvgRoomOccupancyRate: safeDivide(accum.occupancyRate, float64(accum.submissions)),
			AvgGuestsPerRoom:     safeDivide(accum.guestsPerRoom, float64(accum.submissions)),
			TotalRooms:           accum.rooms,
			TotalSubmissions:     accum.submissions,
			SubmissionRate:       safeDivide(float64(accum.submissions), float64(eligible)) * 100,
		})
	}

	return rollups, nil
}

// MonthlyCheckIns projects the rollups down to the check-ins time series.
func (s *AggregationService) MonthlyCheckIns(scope models.GeographicScope, year int) ([]models.MonthlyCheckIns, error) {
	rollups, err := s.MonthlyRollups(scope, year)
	if err != nil {
		return nil, err
	}

	series := make([]models.MonthlyCheckIns, 0, len(rollups))
	for _, rollup := range rollups {
		series = append(series, models.MonthlyCheckIns{
			Month:         rollup.Month,
			TotalCheckIns: rollup.TotalCheckIns,
		})
	}
	return series, nil
}

// NationalityCounts counts checked-in guests per nationality with a gender
// split, ordered by count descending.
func (s *AggregationService) NationalityCounts(scope models.GeographicScope, year, month int) ([]models.NationalityCount, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	query := `
		SELECT g.nationality, COUNT(*),
		       SUM(IF(g.gender = 'Male', 1, 0)),
		       SUM(IF(g.gender = 'Female', 1, 0))
		FROM submission_latest sl
		JOIN submissions s ON s.id = sl.submission_id
		JOIN establishments e ON e.id = s.establishment_id
		JOIN daily_metrics d ON d.submission_id = s.id
		JOIN guests g ON g.daily_metric_id = d.id
		WHERE s.year = ? AND s.month = ? AND g.is_check_in = 1`
	args := []interface{}{year, month}

	conds, scopeArgs := scopeConditions(scope)
	for _, cond := range conds {
		query += " AND " + cond
	}
	args = append(args, scopeArgs...)
	query += " GROUP BY g.nationality ORDER BY COUNT(*) DESC, g.nationality ASC"

	rows, err := s.db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nationality counts: %w", err)
	}
	defer rows.Close()

	counts := []models.NationalityCount{}
	for rows.Next() {
		var count models.NationalityCount
		if err := rows.Scan(&count.Nationality, &count.Count, &count.MaleCount, &count.FemaleCount); err != nil {
			return nil, fmt.Errorf("failed to scan nationality count: %w", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nationality counts: %w", err)
	}

	return counts, nil
}

// GroupedNationalityCounts buckets nationality counts by establishment or
// municipality. An empty groupBy picks municipality when the scope spans
// multiple municipalities, establishment otherwise.
func (s *AggregationService) GroupedNationalityCounts(scope models.GeographicScope, year, month int, groupBy string) (map[string]map[string]int, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	var groupColumn string
	switch groupBy {
	case "":
		if scope.SpansMultipleMunicipalities() {
			groupColumn = "e.municipality"
		} else {
			groupColumn = "e.name"
		}
	case GroupByMunicipality:
		groupColumn = "e.municipality"
	case GroupByEstablishment:
		groupColumn = "e.name"
	default:
		return nil, &models.ValidationError{
			Message: fmt.Sprintf("unsupported group_by %q, expected %q or %q",
				groupBy, GroupByEstablishment, GroupByMunicipality),
		}
	}

	query := fmt.Sprintf(`
		SELECT %s, g.nationality, COUNT(*)
		FROM submission_latest sl
		JOIN submissions s ON s.id = sl.submission_id
		JOIN establishments e ON e.id = s.establishment_id
		JOIN daily_metrics d ON d.submission_id = s.id
		JOIN guests g ON g.daily_metric_id = d.id
		WHERE s.year = ? AND s.month = ? AND g.is_check_in = 1`, groupColumn)
	args := []interface{}{year, month}

	conds, scopeArgs := scopeConditions(scope)
	for _, cond := range conds {
		query += " AND " + cond
	}
	args = append(args, scopeArgs...)
	query += fmt.Sprintf(" GROUP BY %s, g.nationality", groupColumn)

	rows, err := s.db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped nationality counts: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string]map[string]int)
	for rows.Next() {
		var group, nationality string
		var count int
		if err := rows.Scan(&group, &nationality, &count); err != nil {
			return nil, fmt.Errorf("failed to scan grouped nationality count: %w", err)
		}
		if grouped[group] == nil {
			grouped[group] = make(map[string]int)
		}
		grouped[group][nationality] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grouped nationality counts: %w", err)
	}

	return grouped, nil
}

// NationalityDistribution rolls the per-nationality counts into the
// taxonomy buckets and the resident partition.
func (s *AggregationService) NationalityDistribution(scope models.GeographicScope, year, month int) (*models.NationalityDistribution, error) {
	counts, err := s.NationalityCounts(scope, year, month)
	if err != nil {
		return nil, err
	}
	dist := s.classifier.Distribute(counts)
	return &dist, nil
}

// GuestDemographics counts checked-in guests per (gender, age group,
// status) bucket. Guests under 18 are minors.
func (s *AggregationService) GuestDemographics(scope models.GeographicScope, year, month int) ([]models.DemographicCount, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	query := `
		SELECT g.gender, IF(g.age < 18, 'Minors', 'Adults') AS age_group, g.status, COUNT(*)
		FROM submission_latest sl
		JOIN submissions s ON s.id = sl.submission_id
		JOIN establishments e ON e.id = s.establishment_id
		JOIN daily_metrics d ON d.submission_id = s.id
		JOIN guests g ON g.daily_metric_id = d.id
		WHERE s.year = ? AND s.month = ? AND g.is_check_in = 1`
	args := []interface{}{year, month}

	conds, scopeArgs := scopeConditions(scope)
	for _, cond := range conds {
		query += " AND " + cond
	}
	args = append(args, scopeArgs...)
	query += " GROUP BY g.gender, age_group, g.status"

	rows, err := s.db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guest demographics: %w", err)
	}
	defer rows.Close()

	demographics := []models.DemographicCount{}
	for rows.Next() {
		var count models.DemographicCount
		if err := rows.Scan(&count.Gender, &count.AgeGroup, &count.Status, &count.Count); err != nil {
			return nil, fmt.Errorf("failed to scan demographic count: %w", err)
		}
		demographics = append(demographics, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guest demographics: %w", err)
	}

	return demographics, nil
}

// ComplianceList pages through latest submissions in scope with their
// compliance flags attached.
func (s *AggregationService) ComplianceList(scope models.GeographicScope, filters ComplianceFilters) (*models.ComplianceListResponse, error) {
	if filters.Year != 0 {
		if err := validateYear(filters.Year); err != nil {
			return nil, err
		}
	}
	if filters.Month != 0 {
		if err := validateMonth(filters.Month); err != nil {
			return nil, err
		}
	}

	var conds []string
	var args []interface{}

	scopeConds, scopeArgs := scopeConditions(scope)
	conds = append(conds, scopeConds...)
	args = append(args, scopeArgs...)

	if filters.Year != 0 {
		conds = append(conds, "s.year = ?")
		args = append(args, filters.Year)
	}
	if filters.Month != 0 {
		conds = append(conds, "s.month = ?")
		args = append(args, filters.Month)
	}
	switch filters.Status {
	case "":
	case "late":
		conds = append(conds, "s.submitted_at > s.deadline")
	case "on_time":
		conds = append(conds, "s.submitted_at <= s.deadline")
	default:
		return nil, &models.ValidationError{
			Message: fmt.Sprintf("unsupported status filter %q, expected \"late\" or \"on_time\"", filters.Status),
		}
	}
	switch filters.Penalty {
	case "":
	case "paid":
		conds = append(conds, "s.penalty_paid = 1")
	case "unpaid":
		conds = append(conds, "s.submitted_at > s.deadline", "s.penalty_paid = 0")
	default:
		return nil, &models.ValidationError{
			Message: fmt.Sprintf("unsupported penalty filter %q, expected \"paid\" or \"unpaid\"", filters.Penalty),
		}
	}
	if filters.Search != "" {
		conds = append(conds, "e.name LIKE ?")
		args = append(args, "%"+filters.Search+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	from := `
		FROM submission_latest sl
		JOIN submissions s ON s.id = sl.submission_id
		JOIN establishments e ON e.id = s.establishment_id`

	var total int
	if err := s.db.db.QueryRow("SELECT COUNT(*)"+from+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count compliance entries: %w", err)
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT s.id, s.establishment_id, e.name, s.month, s.year, s.room_count,
		       s.submitted_at, s.deadline, s.penalty_paid, s.receipt_no` +
		from + where + `
		ORDER BY s.submitted_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance entries: %w", err)
	}
	defer rows.Close()

	entries := []models.ComplianceEntry{}
	for rows.Next() {
		entry, err := scanComplianceEntry(rows)
		if err != nil {
			return nil, err
		}
		entry.Compliance = s.compliance.Classify(entry.SubmittedAt, entry.Deadline, entry.PenaltyPaid)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compliance entries: %w", err)
	}

	return &models.ComplianceListResponse{
		Entries: entries,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

// AnnotateCompliance fills in compliance flags on entries read elsewhere,
// e.g. the live submissions feed.
func (s *AggregationService) AnnotateCompliance(entries []models.ComplianceEntry) {
	for i := range entries {
		entries[i].Compliance = s.compliance.Classify(entries[i].SubmittedAt, entries[i].Deadline, entries[i].PenaltyPaid)
	}
}

// safeDivide returns 0 on a zero denominator. Rates are reported as 0,
// never NaN.
func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// daysInMonth returns the number of days in a calendar month.
func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func validateYear(year int) error {
	if year < 2000 || year > 2100 {
		return &models.ValidationError{Message: fmt.Sprintf("year %d out of range", year)}
	}
	return nil
}

func validateMonth(month int) error {
	if month < 1 || month > 12 {
		return &models.ValidationError{Message: fmt.Sprintf("month %d out of range", month)}
	}
	return nil
}
