package services

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/shopspring/decimal"

	"occupancy-dashboard/models"
)

var (
	complianceDB   *sql.DB
	complianceMock sqlmock.Sqlmock
)

func complianceSetUp() {
	complianceDB, complianceMock, _ = sqlmock.New()
}

func complianceTearDown() {
	complianceDB.Close()
}

var complianceIt = beforeeach.Create(complianceSetUp, complianceTearDown)

func testComplianceService() *ComplianceService {
	return NewComplianceService(NewDatabaseServiceFromDB(complianceDB), decimal.NewFromInt(2000))
}

func TestClassify(t *testing.T) {
	service := testComplianceService()
	deadline := time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC)

	testCases := []struct {
		name        string
		submittedAt time.Time
		penaltyPaid bool

		expected models.ComplianceStatus
	}{
		{
			name:        "Before deadline",
			submittedAt: deadline.Add(-time.Hour),
			expected:    models.ComplianceStatus{IsLate: false, PenaltyOwed: false, PenaltyPaid: false},
		},
		{
			name:        "Exactly at deadline is on time",
			submittedAt: deadline,
			expected:    models.ComplianceStatus{IsLate: false, PenaltyOwed: false, PenaltyPaid: false},
		},
		{
			name:        "One second late",
			submittedAt: deadline.Add(time.Second),
			expected:    models.ComplianceStatus{IsLate: true, PenaltyOwed: true, PenaltyPaid: false},
		},
		{
			name:        "Late and paid still owes",
			submittedAt: deadline.Add(48 * time.Hour),
			penaltyPaid: true,
			expected:    models.ComplianceStatus{IsLate: true, PenaltyOwed: true, PenaltyPaid: true},
		},
		{
			name:        "Paid flag never makes an on-time submission late",
			submittedAt: deadline.Add(-time.Minute),
			penaltyPaid: true,
			expected:    models.ComplianceStatus{IsLate: false, PenaltyOwed: false, PenaltyPaid: true},
		},
	}

	for _, testCase := range testCases {
		got := service.Classify(testCase.submittedAt, deadline, testCase.penaltyPaid)
		if got != testCase.expected {
			t.Errorf("%s: expected %+v, got %+v", testCase.name, testCase.expected, got)
		}
	}
}

const penaltySelectPattern = "SELECT submitted_at, deadline, penalty_paid, access_code, receipt_no FROM submissions WHERE id = \\?"
const penaltyUpdatePattern = "UPDATE submissions SET penalty_paid = 1, receipt_no = \\? WHERE id = \\? AND penalty_paid = 0"

func TestRecordPenaltyPayment(t *testing.T) {
	complianceIt(func() {
		service := testComplianceService()

		deadline := time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC)
		late := deadline.Add(24 * time.Hour)
		columns := []string{"submitted_at", "deadline", "penalty_paid", "access_code", "receipt_no"}

		complianceMock.ExpectQuery(penaltySelectPattern).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(late, deadline, 0, "CODE-7", nil))
		complianceMock.ExpectExec(penaltyUpdatePattern).
			WithArgs("OR-2024-001", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		resp, err := service.RecordPenaltyPayment(models.PenaltyPaymentRequest{
			SubmissionID: 7,
			ReceiptNo:    "OR-2024-001",
			AccessCode:   "CODE-7",
		})
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if !resp.PenaltyPaid || resp.AlreadyPaid || resp.ReceiptNo != "OR-2024-001" {
			t.Errorf("unexpected response %+v", resp)
		}
		if !resp.Amount.Equal(decimal.NewFromInt(2000)) {
			t.Errorf("expected amount 2000, got %s", resp.Amount)
		}
	})
}

func TestRecordPenaltyPaymentIdempotent(t *testing.T) {
	complianceIt(func() {
		service := testComplianceService()

		deadline := time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC)
		late := deadline.Add(24 * time.Hour)
		columns := []string{"submitted_at", "deadline", "penalty_paid", "access_code", "receipt_no"}

		// Second payment: already paid, no UPDATE issued.
		complianceMock.ExpectQuery(penaltySelectPattern).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(late, deadline, 1, "CODE-7", "OR-2024-001"))

		resp, err := service.RecordPenaltyPayment(models.PenaltyPaymentRequest{
			SubmissionID: 7,
			ReceiptNo:    "OR-2024-999",
			AccessCode:   "CODE-7",
		})
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if !resp.AlreadyPaid || resp.ReceiptNo != "OR-2024-001" {
			t.Errorf("expected no-op with original receipt, got %+v", resp)
		}
		if err := complianceMock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet or extra expectations: %v", err)
		}
	})
}

func TestRecordPenaltyPaymentFailures(t *testing.T) {
	complianceIt(func() {
		service := testComplianceService()

		deadline := time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC)
		columns := []string{"submitted_at", "deadline", "penalty_paid", "access_code", "receipt_no"}

		testCases := []struct {
			name    string
			prepare func()
			request models.PenaltyPaymentRequest
			check   func(err error) bool
		}{
			{
				name: "Unknown submission",
				prepare: func() {
					complianceMock.ExpectQuery(penaltySelectPattern).
						WithArgs(int64(99)).
						WillReturnError(sql.ErrNoRows)
				},
				request: models.PenaltyPaymentRequest{SubmissionID: 99, AccessCode: "x"},
				check:   func(err error) bool { return errors.Is(err, models.ErrSubmissionNotFound) },
			},
			{
				name: "Wrong access code",
				prepare: func() {
					complianceMock.ExpectQuery(penaltySelectPattern).
						WithArgs(int64(7)).
						WillReturnRows(sqlmock.NewRows(columns).AddRow(deadline.Add(time.Hour), deadline, 0, "CODE-7", nil))
				},
				request: models.PenaltyPaymentRequest{SubmissionID: 7, AccessCode: "WRONG"},
				check:   func(err error) bool { return errors.Is(err, models.ErrAccessCodeMismatch) },
			},
			{
				name: "On-time submission owes nothing",
				prepare: func() {
					complianceMock.ExpectQuery(penaltySelectPattern).
						WithArgs(int64(8)).
						WillReturnRows(sqlmock.NewRows(columns).AddRow(deadline.Add(-time.Hour), deadline, 0, "CODE-8", nil))
				},
				request: models.PenaltyPaymentRequest{SubmissionID: 8, AccessCode: "CODE-8"},
				check: func(err error) bool {
					var validation *models.ValidationError
					return errors.As(err, &validation)
				},
			},
			{
				name: "Store read error",
				prepare: func() {
					complianceMock.ExpectQuery(penaltySelectPattern).
						WithArgs(int64(7)).
						WillReturnError(fmt.Errorf("connection reset"))
				},
				request: models.PenaltyPaymentRequest{SubmissionID: 7, AccessCode: "CODE-7"},
				check:   func(err error) bool { return err != nil },
			},
		}

		for _, testCase := range testCases {
			testCase.prepare()
			_, err := service.RecordPenaltyPayment(testCase.request)
			if !testCase.check(err) {
				t.Errorf("%s: unexpected error result %v", testCase.name, err)
			}
		}
	})
}
