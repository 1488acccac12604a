// Package lms implements the result collaborator interfaces over the host
// LMS's REST web services. One client serves all four subsystems (courses,
// grades, completion, last access) so the sync job configures a single
// endpoint and token.
package lms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"enrol-sync/internal/domain"
	"enrol-sync/internal/httpx"
	"enrol-sync/internal/result"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	tr := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP: &http.Client{
			Timeout:   1 * time.Minute,
			Transport: tr,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
			if err != nil {
				return nil, err
			}
			r.Header.Set("Accept", "application/json")
			r.Header.Set("Authorization", "Token "+c.Token)
			return r, nil
		},
		out,
		httpx.DefaultRetryConfig(),
	)
}

// Course implements result.CourseService. A 404 from the LMS is a hard error:
// sync cannot proceed for a registration whose course is gone.
func (c *Client) Course(ctx context.Context, id int64) (*domain.Course, error) {
	var row courseRow
	if err := c.get(ctx, fmt.Sprintf("/api/courses/%d", id), &row); err != nil {
		return nil, fmt.Errorf("lms: course %d: %w", id, err)
	}
	return &domain.Course{
		ID:        row.ID,
		FullName:  row.FullName,
		ShortName: row.ShortName,
		IDNumber:  row.IDNumber,
	}, nil
}

// PassItem implements result.GradeService.
func (c *Client) PassItem(ctx context.Context, courseID int64) (*result.GradeItem, error) {
	var row gradeItemRow
	if err := c.get(ctx, fmt.Sprintf("/api/courses/%d/grade-item", courseID), &row); err != nil {
		return nil, fmt.Errorf("lms: grade item for course %d: %w", courseID, err)
	}
	if !row.Exists {
		return nil, nil
	}
	return &result.GradeItem{
		PassMark:    row.PassMark,
		HasPassMark: row.HasPassMark,
		Decimals:    row.Decimals,
	}, nil
}

// UserGrade implements result.GradeService.
func (c *Client) UserGrade(ctx context.Context, userID, courseID int64) (*result.UserGrade, error) {
	var row userGradeRow
	if err := c.get(ctx, fmt.Sprintf("/api/courses/%d/grades/%d", courseID, userID), &row); err != nil {
		return nil, fmt.Errorf("lms: grade for user %d course %d: %w", userID, courseID, err)
	}
	if !row.Exists {
		return nil, nil
	}
	return &result.UserGrade{Display: row.Display, Real: row.Real}, nil
}

// completion fetches the completion status document the methods below read
// individual facts from. The LMS returns everything in one payload; splitting
// it into four round trips would just multiply latency.
func (c *Client) completion(ctx context.Context, userID, courseID int64) (*completionRow, error) {
	var row completionRow
	if err := c.get(ctx, fmt.Sprintf("/api/courses/%d/completion/%d", courseID, userID), &row); err != nil {
		return nil, fmt.Errorf("lms: completion for user %d course %d: %w", userID, courseID, err)
	}
	return &row, nil
}

// IsTracked implements result.CompletionService.
func (c *Client) IsTracked(ctx context.Context, userID, courseID int64) (bool, error) {
	row, err := c.completion(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	return row.Tracked, nil
}

// IsComplete implements result.CompletionService.
func (c *Client) IsComplete(ctx context.Context, userID, courseID int64) (bool, error) {
	row, err := c.completion(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	return row.Complete, nil
}

// CriteriaProgress implements result.CompletionService.
func (c *Client) CriteriaProgress(ctx context.Context, userID, courseID int64) (int, int, error) {
	row, err := c.completion(ctx, userID, courseID)
	if err != nil {
		return 0, 0, err
	}
	return row.CompletedCriteria, row.TotalCriteria, nil
}

// StartedAt implements result.CompletionService.
func (c *Client) StartedAt(ctx context.Context, userID, courseID int64) (int64, error) {
	row, err := c.completion(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}
	return row.TimeStarted, nil
}

// LastAccess implements result.LastAccessService.
func (c *Client) LastAccess(ctx context.Context, userID, courseID int64) (int64, error) {
	var row lastAccessRow
	if err := c.get(ctx, fmt.Sprintf("/api/courses/%d/last-access/%d", courseID, userID), &row); err != nil {
		return 0, fmt.Errorf("lms: last access for user %d course %d: %w", userID, courseID, err)
	}
	return row.TimeAccess, nil
}
