package gdpr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RectifyUserData applies a validated partial update to the subject's
// profile. Only the fields present in corrections are touched.
func (s *Service) RectifyUserData(ctx context.Context, subjectID uuid.UUID, corrections Corrections, requesterID uuid.UUID) (*RectifyResult, error) {
	const op = "rectify"
	details := map[string]any{"requestedBy": requesterID.String()}

	if err := s.authorize(ctx, op, subjectID, requesterID); err != nil {
		return nil, s.fail(op, ActionDataRectificationFailed, subjectID, details, err)
	}
	if corrections.Profile == nil {
		return nil, s.fail(op, ActionDataRectificationFailed, subjectID, details, newError(op, KindInvalid, ErrNothingToRectify))
	}
	if err := s.validate.Struct(corrections); err != nil {
		return nil, s.fail(op, ActionDataRectificationFailed, subjectID, details, newError(op, KindInvalid, err))
	}

	fields, names, err := profileUpdates(corrections.Profile)
	if err != nil {
		return nil, s.fail(op, ActionDataRectificationFailed, subjectID, details, newError(op, KindInvalid, err))
	}
	if len(fields) == 0 {
		return nil, s.fail(op, ActionDataRectificationFailed, subjectID, details, newError(op, KindInvalid, ErrNothingToRectify))
	}
	details["fields"] = names

	if err := s.repos.Users.UpdateFields(ctx, subjectID, fields); err != nil {
		return nil, s.fail(op, ActionDataRectificationFailed, subjectID, details, storageError(op, err))
	}

	s.succeed(op, ActionDataRectification, subjectID, details)
	return &RectifyResult{ProfileUpdated: true, UpdatedFields: names}, nil
}

func profileUpdates(p *ProfileCorrections) (map[string]any, []string, error) {
	fields := map[string]any{}
	var names []string
	if p.Name != nil {
		fields["name"] = *p.Name
		names = append(names, "name")
	}
	if p.Bio != nil {
		fields["bio"] = *p.Bio
		names = append(names, "bio")
	}
	if p.ProfileImage != nil {
		fields["profile_image"] = *p.ProfileImage
		names = append(names, "profileImage")
	}
	if p.Skills != nil {
		raw, err := json.Marshal(p.Skills)
		if err != nil {
			return nil, nil, fmt.Errorf("encode skills: %w", err)
		}
		fields["skills"] = datatypes.JSON(raw)
		names = append(names, "skills")
	}
	if p.SocialLinks != nil {
		raw, err := json.Marshal(p.SocialLinks)
		if err != nil {
			return nil, nil, fmt.Errorf("encode social links: %w", err)
		}
		fields["social_links"] = datatypes.JSON(raw)
		names = append(names, "socialLinks")
	}
	return fields, names, nil
}

// RestrictDataProcessing stamps the subject's record with the requested
// restrictions. It does not enforce them.
func (s *Service) RestrictDataProcessing(ctx context.Context, subjectID uuid.UUID, restrictions Restrictions, requesterID uuid.UUID) (*RestrictResult, error) {
	const op = "restrict"
	details := map[string]any{"requestedBy": requesterID.String(), "restrictions": restrictions}

	if err := s.authorize(ctx, op, subjectID, requesterID); err != nil {
		return nil, s.fail(op, ActionProcessingRestrictionFailed, subjectID, details, err)
	}
	if err := s.validate.Struct(restrictions); err != nil {
		return nil, s.fail(op, ActionProcessingRestrictionFailed, subjectID, details, newError(op, KindInvalid, err))
	}

	now := s.clock.Now().UTC()
	raw, err := json.Marshal(storedRestrictions{
		Restrictions: restrictions,
		RestrictedAt: now,
		RestrictedBy: requesterID,
	})
	if err != nil {
		return nil, s.fail(op, ActionProcessingRestrictionFailed, subjectID, details, newError(op, KindInvalid, err))
	}

	err = s.repos.Users.UpdateFields(ctx, subjectID, map[string]any{
		"data_processing_restrictions": datatypes.JSON(raw),
		"restriction_date":             now,
		"restricted_by":                requesterID,
	})
	if err != nil {
		return nil, s.fail(op, ActionProcessingRestrictionFailed, subjectID, details, storageError(op, err))
	}

	s.succeed(op, ActionProcessingRestricted, subjectID, details)
	return &RestrictResult{Restrictions: restrictions, RestrictedAt: now, RestrictedBy: requesterID}, nil
}

func storageError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(op, KindNotFound, ErrUserNotFound)
	}
	return newError(op, KindStorage, err)
}
