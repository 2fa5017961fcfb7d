package services

import (
	"database/sql"
	"fmt"
	"time"

	"occupancy-dashboard/models"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComplianceService classifies submissions against their deadlines and
// records penalty payments.
type ComplianceService struct {
	db         *DatabaseService
	penaltyFee decimal.Decimal
}

// NewComplianceService creates a new compliance service.
func NewComplianceService(db *DatabaseService, penaltyFee decimal.Decimal) *ComplianceService {
	return &ComplianceService{db: db, penaltyFee: penaltyFee}
}

// Classify derives the compliance flags for one submission. Lateness is a
// strict comparison: submitting exactly at the deadline is on time. A late
// submission owes a penalty regardless of payment state; payment state is
// only reported, never derived.
func (s *ComplianceService) Classify(submittedAt, deadline time.Time, penaltyPaid bool) models.ComplianceStatus {
	isLate := submittedAt.After(deadline)
	return models.ComplianceStatus{
		IsLate:      isLate,
		PenaltyOwed: isLate,
		PenaltyPaid: penaltyPaid,
	}
}

// PenaltyFee returns the configured fee charged for a late submission.
func (s *ComplianceService) PenaltyFee() decimal.Decimal {
	return s.penaltyFee
}

// RecordPenaltyPayment marks a late submission's penalty as paid. The
// operation is idempotent: paying an already-paid submission succeeds
// without changing anything. The supplied access code must match the
// submission's recorded one. When no receipt number is supplied a
// reference is generated.
func (s *ComplianceService) RecordPenaltyPayment(req models.PenaltyPaymentRequest) (*models.PenaltyPaymentResponse, error) {
	var (
		submittedAt time.Time
		deadline    time.Time
		penaltyPaid int
		accessCode  string
		receiptNo   sql.NullString
	)

	err := s.db.db.QueryRow(`
		SELECT submitted_at, deadline, penalty_paid, access_code, receipt_no
		FROM submissions
		WHERE id = ?`, req.SubmissionID).
		Scan(&submittedAt, &deadline, &penaltyPaid, &accessCode, &receiptNo)
	if err == sql.ErrNoRows {
		return nil, models.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read submission %d: %w", req.SubmissionID, err)
	}

	if accessCode != req.AccessCode {
		return nil, models.ErrAccessCodeMismatch
	}

	status := s.Classify(submittedAt, deadline, penaltyPaid != 0)
	if !status.PenaltyOwed {
		return nil, &models.ValidationError{
			Message: fmt.Sprintf("submission %d is on time and owes no penalty", req.SubmissionID),
		}
	}

	if status.PenaltyPaid {
		existing := ""
		if receiptNo.Valid {
			existing = receiptNo.String
		}
		log.Infof("Penalty for submission %d already paid, receipt %s", req.SubmissionID, existing)
		return &models.PenaltyPaymentResponse{
			SubmissionID: req.SubmissionID,
			PenaltyPaid:  true,
			ReceiptNo:    existing,
			Amount:       s.penaltyFee,
			AlreadyPaid:  true,
		}, nil
	}

	receipt := req.ReceiptNo
	if receipt == "" {
		receipt = uuid.NewString()
	}

	// The penalty_paid guard keeps a concurrent double payment a no-op.
	result, err := s.db.db.Exec(`
		UPDATE submissions
		SET penalty_paid = 1, receipt_no = ?
		WHERE id = ? AND penalty_paid = 0`,
		receipt, req.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to record penalty payment for submission %d: %w", req.SubmissionID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get status of penalty payment for submission %d: %w", req.SubmissionID, err)
	}
	if affected == 0 {
		// Lost the race against another payment; report the recorded state.
		log.Warnf("Penalty payment for submission %d raced an earlier payment", req.SubmissionID)
		return &models.PenaltyPaymentResponse{
			SubmissionID: req.SubmissionID,
			PenaltyPaid:  true,
			Amount:       s.penaltyFee,
			AlreadyPaid:  true,
		}, nil
	}

	log.Infof("Recorded penalty payment of %s for submission %d, receipt %s",
		s.penaltyFee.StringFixed(2), req.SubmissionID, receipt)

	return &models.PenaltyPaymentResponse{
		SubmissionID: req.SubmissionID,
		PenaltyPaid:  true,
		ReceiptNo:    receipt,
		Amount:       s.penaltyFee,
	}, nil
}
