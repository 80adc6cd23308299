package gdpr

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Rights lists the data subject rights every privacy report states.
var Rights = []string{
	"access",
	"rectification",
	"erasure",
	"restriction",
	"portability",
	"objection",
}

var processingPurposes = []string{
	"Providing learning, freelancing and mentorship services",
	"Matching clients with freelancers and mentees with mentors",
	"Account security and fraud prevention",
	"Service notifications and communication",
	"Legal and regulatory compliance",
}

// PrivacyReport summarises what is held about the subject and how it is
// processed.
func (s *Service) PrivacyReport(ctx context.Context, subjectID uuid.UUID) (*PrivacyReport, error) {
	const op = "privacy_report"
	bundle, err := s.collect(ctx, subjectID)
	if err != nil {
		return nil, s.fail(op, ActionDataExportFailed, subjectID, map[string]any{"report": "privacy"}, newError(op, KindCollection, err))
	}
	s.metrics.requests.WithLabelValues(op, "success").Inc()

	return &PrivacyReport{
		UserID:         subjectID,
		GeneratedAt:    s.clock.Now().UTC(),
		DataCategories: bundle.DataTypes(),
		RecordCount:    bundle.RecordCount(),
		RetentionPolicy: RetentionPolicy{
			ActiveAccount:  "Retained while the account is active",
			DeletedAccount: "Anonymized on erasure request; shared records keep placeholders",
			ExportFiles:    fmt.Sprintf("Removed after %d days", s.cfg.RetentionDays),
			SecurityLogs:   "Retained for security monitoring and audit",
		},
		ProcessingPurposes: append([]string(nil), processingPurposes...),
		DataSharing: DataSharing{
			ThirdParties: []string{"Email delivery provider"},
			Purpose:      "Transactional email only",
			Safeguards:   "Data processing agreements and encryption in transit",
		},
		Rights: append([]string(nil), Rights...),
	}, nil
}
