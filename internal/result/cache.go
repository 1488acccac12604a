package result

import (
	"context"

	"enrol-sync/internal/domain"
)

// CourseCache memoizes course lookups for one sync run. Many registrations
// usually point at the same handful of courses, so the first resolve per
// course hits the host and the rest are served from memory. There is no
// invalidation; a cache lives exactly as long as one batch run.
//
// Not safe for concurrent use. A parallel sync must either give each worker
// its own cache or guard a shared one with a lock (internal/sync does the
// latter).
type CourseCache struct {
	svc     CourseService
	courses map[int64]*domain.Course
}

// NewCourseCache returns an empty cache backed by svc.
func NewCourseCache(svc CourseService) *CourseCache {
	return &CourseCache{
		svc:     svc,
		courses: make(map[int64]*domain.Course),
	}
}

// Resolve returns the course, fetching it from the host on first use.
func (c *CourseCache) Resolve(ctx context.Context, id int64) (*domain.Course, error) {
	if course, ok := c.courses[id]; ok {
		return course, nil
	}
	course, err := c.svc.Course(ctx, id)
	if err != nil {
		return nil, err
	}
	c.courses[id] = course
	return course, nil
}

// Len returns the number of cached courses.
func (c *CourseCache) Len() int { return len(c.courses) }
