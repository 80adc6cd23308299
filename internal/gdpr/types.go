// Package gdpr implements the data subject rights of the platform: export,
// erasure, rectification, processing restriction, privacy reporting and
// portability, with an append-only audit trail for each request.
package gdpr

import (
	"time"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	CategoryProfile             = "profile"
	CategoryCourseProgress      = "courseProgress"
	CategoryEnrolledCourses     = "enrolledCourses"
	CategoryCreatedCourses      = "createdCourses"
	CategoryClientProjects      = "clientProjects"
	CategoryProjectApplications = "projectApplications"
	CategorySentMessages        = "sentMessages"
	CategoryReceivedMessages    = "receivedMessages"
	CategoryNotifications       = "notifications"
	CategoryMentorships         = "mentorships"
	CategoryMenteeships         = "menteeships"
)

// Profile is the exported view of a user. Credentials, sessions and reset
// tokens never appear in it.
type Profile struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Role            entity.UserRole `json:"role"`
	Skills          datatypes.JSON  `json:"skills,omitempty"`
	Bio             string          `json:"bio,omitempty"`
	ProfileImage    string          `json:"profileImage,omitempty"`
	SocialLinks     datatypes.JSON  `json:"socialLinks,omitempty"`
	Preferences     datatypes.JSON  `json:"preferences,omitempty"`
	EmailVerifiedAt *time.Time      `json:"emailVerifiedAt,omitempty"`
	IsActive        bool            `json:"isActive"`

	DataProcessingRestrictions datatypes.JSON `json:"dataProcessingRestrictions,omitempty"`
	RestrictionDate            *time.Time     `json:"restrictionDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func profileOf(u *entity.User) *Profile {
	return &Profile{
		ID:                         u.ID,
		Name:                       u.Name,
		Email:                      u.Email,
		Role:                       u.Role,
		Skills:                     u.Skills,
		Bio:                        u.Bio,
		ProfileImage:               u.ProfileImage,
		SocialLinks:                u.SocialLinks,
		Preferences:                u.Preferences,
		EmailVerifiedAt:            u.EmailVerifiedAt,
		IsActive:                   u.IsActive,
		DataProcessingRestrictions: u.DataProcessingRestrictions,
		RestrictionDate:            u.RestrictionDate,
		CreatedAt:                  u.CreatedAt,
		UpdatedAt:                  u.UpdatedAt,
	}
}

type CourseRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// Bundle holds everything the platform stores about one subject. Empty
// categories are left out of its JSON encoding.
type Bundle struct {
	Profile             *Profile                    `json:"profile,omitempty"`
	CourseProgress      []entity.UserProgress       `json:"courseProgress,omitempty"`
	EnrolledCourses     []CourseRef                 `json:"enrolledCourses,omitempty"`
	CreatedCourses      []entity.Course             `json:"createdCourses,omitempty"`
	ClientProjects      []entity.Project            `json:"clientProjects,omitempty"`
	ProjectApplications []entity.ProjectApplication `json:"projectApplications,omitempty"`
	SentMessages        []entity.Message            `json:"sentMessages,omitempty"`
	ReceivedMessages    []entity.Message            `json:"receivedMessages,omitempty"`
	Notifications       []entity.Notification       `json:"notifications,omitempty"`
	Mentorships         []entity.Mentorship         `json:"mentorships,omitempty"`
	Menteeships         []entity.Mentorship         `json:"menteeships,omitempty"`
}

type categorySize struct {
	name string
	n    int
}

func (b *Bundle) sizes() []categorySize {
	profile := 0
	if b.Profile != nil {
		profile = 1
	}
	return []categorySize{
		{CategoryProfile, profile},
		{CategoryCourseProgress, len(b.CourseProgress)},
		{CategoryEnrolledCourses, len(b.EnrolledCourses)},
		{CategoryCreatedCourses, len(b.CreatedCourses)},
		{CategoryClientProjects, len(b.ClientProjects)},
		{CategoryProjectApplications, len(b.ProjectApplications)},
		{CategorySentMessages, len(b.SentMessages)},
		{CategoryReceivedMessages, len(b.ReceivedMessages)},
		{CategoryNotifications, len(b.Notifications)},
		{CategoryMentorships, len(b.Mentorships)},
		{CategoryMenteeships, len(b.Menteeships)},
	}
}

// DataTypes lists the non-empty categories in collection order.
func (b *Bundle) DataTypes() []string {
	out := []string{}
	for _, c := range b.sizes() {
		if c.n > 0 {
			out = append(out, c.name)
		}
	}
	return out
}

// RecordCount counts list entries individually and the profile as one.
func (b *Bundle) RecordCount() int {
	total := 0
	for _, c := range b.sizes() {
		total += c.n
	}
	return total
}

const (
	complianceStamp = "Article 20 - Right to data portability"
	exportVersion   = "1.0"
)

type ExportMetadata struct {
	ExportDate     time.Time `json:"exportDate"`
	UserID         uuid.UUID `json:"userId"`
	DataTypes      []string  `json:"dataTypes"`
	GDPRCompliance string    `json:"gdprCompliance"`
	Version        string    `json:"version"`
}

type exportDocument struct {
	*Bundle
	ExportMetadata ExportMetadata `json:"exportMetadata"`
}

type ExportResult struct {
	FilePath    string    `json:"filePath"`
	FileName    string    `json:"fileName"`
	DataTypes   []string  `json:"dataTypes"`
	RecordCount int       `json:"recordCount"`
	ExportedAt  time.Time `json:"exportedAt"`
}

type DeleteOptions struct {
	SkipExport       bool       `json:"skipExport"`
	PreserveProfile  bool       `json:"preserveProfile"`
	TransferCourses  bool       `json:"transferCourses"`
	TransferProjects bool       `json:"transferProjects"`
	NewOwnerID       *uuid.UUID `json:"newOwnerId,omitempty"`
}

func (o DeleteOptions) transferCoursesTo() (uuid.UUID, bool) {
	if o.TransferCourses && o.NewOwnerID != nil && *o.NewOwnerID != uuid.Nil {
		return *o.NewOwnerID, true
	}
	return uuid.Nil, false
}

func (o DeleteOptions) transferProjectsTo() (uuid.UUID, bool) {
	if o.TransferProjects && o.NewOwnerID != nil && *o.NewOwnerID != uuid.Nil {
		return *o.NewOwnerID, true
	}
	return uuid.Nil, false
}

type StepResult struct {
	Name     string                    `json:"name"`
	Status   entity.DeletionStepStatus `json:"status"`
	Affected int64                     `json:"affected"`
	Detail   string                    `json:"detail,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

type DeletionReport struct {
	RequestID   uuid.UUID     `json:"requestId"`
	SubjectID   uuid.UUID     `json:"subjectId"`
	Options     DeleteOptions `json:"options"`
	ExportFile  string        `json:"exportFile,omitempty"`
	Steps       []StepResult  `json:"steps"`
	FailedSteps []string      `json:"failedSteps"`
	CompletedAt time.Time     `json:"completedAt"`
}

// Affected returns the affected count recorded for step, or zero.
func (r *DeletionReport) Affected(step string) int64 {
	for _, s := range r.Steps {
		if s.Name == step {
			return s.Affected
		}
	}
	return 0
}

// ProfileCorrections is a partial profile update. Nil fields are left alone.
type ProfileCorrections struct {
	Name         *string           `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Bio          *string           `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Skills       []string          `json:"skills,omitempty" validate:"omitempty,max=50,dive,min=1,max=50"`
	ProfileImage *string           `json:"profileImage,omitempty" validate:"omitempty,url"`
	SocialLinks  map[string]string `json:"socialLinks,omitempty" validate:"omitempty,dive,keys,min=1,max=30,endkeys,url"`
}

type Corrections struct {
	Profile *ProfileCorrections `json:"profile,omitempty" validate:"omitempty"`
}

type RectifyResult struct {
	ProfileUpdated bool     `json:"profileUpdated"`
	UpdatedFields  []string `json:"updatedFields"`
}

// Restrictions is stored on the user record as-is. Enforcing it is the job of
// the processing pipelines that read it.
type Restrictions struct {
	Marketing         bool   `json:"marketing"`
	Analytics         bool   `json:"analytics"`
	Profiling         bool   `json:"profiling"`
	ThirdPartySharing bool   `json:"thirdPartySharing"`
	Reason            string `json:"reason,omitempty" validate:"max=500"`
}

type storedRestrictions struct {
	Restrictions
	RestrictedAt time.Time `json:"restrictedAt"`
	RestrictedBy uuid.UUID `json:"restrictedBy"`
}

type RestrictResult struct {
	Restrictions Restrictions `json:"restrictions"`
	RestrictedAt time.Time    `json:"restrictedAt"`
	RestrictedBy uuid.UUID    `json:"restrictedBy"`
}

type RetentionPolicy struct {
	ActiveAccount  string `json:"activeAccount"`
	DeletedAccount string `json:"deletedAccount"`
	ExportFiles    string `json:"exportFiles"`
	SecurityLogs   string `json:"securityLogs"`
}

type DataSharing struct {
	ThirdParties []string `json:"thirdParties"`
	Purpose      string   `json:"purpose"`
	Safeguards   string   `json:"safeguards"`
}

type PrivacyReport struct {
	UserID             uuid.UUID       `json:"userId"`
	GeneratedAt        time.Time       `json:"generatedAt"`
	DataCategories     []string        `json:"dataCategories"`
	RecordCount        int             `json:"recordCount"`
	RetentionPolicy    RetentionPolicy `json:"retentionPolicy"`
	ProcessingPurposes []string        `json:"processingPurposes"`
	DataSharing        DataSharing     `json:"dataSharing"`
	Rights             []string        `json:"rights"`
}
