package gdpr

import (
	"context"
	"fmt"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// collect reads every category for subjectID. The reads are independent and
// run concurrently; each writes only its own Bundle field.
func (s *Service) collect(ctx context.Context, subjectID uuid.UUID) (*Bundle, error) {
	var (
		b        Bundle
		enrolled []entity.Course
	)
	r := s.repos
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := r.Users.FindAnyByID(gctx, subjectID)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		if user != nil {
			b.Profile = profileOf(user)
		}
		return nil
	})
	g.Go(func() (err error) {
		b.CourseProgress, err = r.Progress.FindByUser(gctx, subjectID)
		return wrapCategory(CategoryCourseProgress, err)
	})
	g.Go(func() (err error) {
		enrolled, err = r.Courses.FindEnrolled(gctx, subjectID)
		return wrapCategory(CategoryEnrolledCourses, err)
	})
	g.Go(func() (err error) {
		b.CreatedCourses, err = r.Courses.FindByInstructor(gctx, subjectID)
		return wrapCategory(CategoryCreatedCourses, err)
	})
	g.Go(func() (err error) {
		b.ClientProjects, err = r.Projects.FindByClient(gctx, subjectID)
		return wrapCategory(CategoryClientProjects, err)
	})
	g.Go(func() (err error) {
		b.ProjectApplications, err = r.Projects.FindApplicationsByFreelancer(gctx, subjectID)
		return wrapCategory(CategoryProjectApplications, err)
	})
	g.Go(func() (err error) {
		b.SentMessages, err = r.Messages.FindSent(gctx, subjectID)
		return wrapCategory(CategorySentMessages, err)
	})
	g.Go(func() (err error) {
		b.ReceivedMessages, err = r.Messages.FindReceived(gctx, subjectID)
		return wrapCategory(CategoryReceivedMessages, err)
	})
	g.Go(func() (err error) {
		b.Notifications, err = r.Notifications.FindByUser(gctx, subjectID)
		return wrapCategory(CategoryNotifications, err)
	})
	g.Go(func() (err error) {
		b.Mentorships, err = r.Mentorships.FindByMentor(gctx, subjectID)
		return wrapCategory(CategoryMentorships, err)
	})
	g.Go(func() (err error) {
		b.Menteeships, err = r.Mentorships.FindByMentee(gctx, subjectID)
		return wrapCategory(CategoryMenteeships, err)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect user data: %w", err)
	}

	for _, c := range enrolled {
		b.EnrolledCourses = append(b.EnrolledCourses, CourseRef{ID: c.ID, Title: c.Title})
	}
	return &b, nil
}

func wrapCategory(category string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", category, err)
	}
	return nil
}
