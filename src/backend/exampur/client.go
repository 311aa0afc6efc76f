// Package exampur talks to the exam portal behind the /kgs flow: phone and
// password login, paginated courses, lessons and lesson videos.
package exampur

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"batch_txt_bot/src/backend"
	"batch_txt_bot/src/logger"
	"batch_txt_bot/src/metrics"
	"batch_txt_bot/src/model"
)

const (
	backendName   = "exampur"
	anonymousAuth = "no_token"
	untitled      = "Untitled"
	freeLabel     = "Free"
)

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type coursePage struct {
	Data []struct {
		ID    backend.FlexString `json:"id"`
		Title string             `json:"title"`
		Price backend.FlexString `json:"price"`
	} `json:"data"`
}

type lesson struct {
	ID    backend.FlexString `json:"id"`
	Title string             `json:"title"`
}

type lessonDetails struct {
	Videos []struct {
		Name     *string `json:"name"`
		VideoURL string  `json:"video_url"`
	} `json:"videos"`
}

// Client is stateless apart from its configuration
type Client struct {
	api      *backend.Client
	maxPages int
}

// New creates a client for cfg.BaseURL. Accept-Encoding is left to the
// transport, which negotiates gzip and decompresses transparently.
func New(cfg model.ExampurConfig, httpClient *http.Client, m *metrics.Metrics) *Client {
	header := http.Header{
		"User-Agent":   {"Dart/2.15(dart:io)"},
		"Content-Type": {"application/json; charset=UTF-8"},
		"Appauthtoken": {anonymousAuth},
	}
	return &Client{
		api:      backend.NewClient(backendName, cfg.BaseURL, httpClient, header, m),
		maxPages: cfg.MaxPages,
	}
}

func authHeader(token string) http.Header {
	return http.Header{"Appauthtoken": {token}}
}

// Login exchanges phone and password for a token. Any non-200 answer, or a
// 200 without a token, is backend.ErrAuth.
func (c *Client) Login(ctx context.Context, phone, password string) (string, error) {
	const op = "login"
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Phone: phone, Password: password},
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: %w", backend.ErrAuth, c.api.StatusErr(op, resp))
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if strings.TrimSpace(body.Token) == "" {
		return "", fmt.Errorf("%w: login response carried no token", backend.ErrAuth)
	}
	return body.Token, nil
}

// ListCourses walks every page of the caller's courses with the same
// all-or-nothing rules as the batch listing.
func (c *Client) ListCourses(ctx context.Context, token string) ([]model.Course, error) {
	return backend.Collect(ctx, func(ctx context.Context, page int) ([]model.Course, error) {
		return c.coursePage(ctx, token, page)
	}, c.maxPages)
}

func (c *Client) coursePage(ctx context.Context, token string, page int) ([]model.Course, error) {
	const op = "list_courses"
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     op,
		Path:   "/auth/login/user/courses",
		Query:  url.Values{"page": {strconv.Itoa(page)}},
		Header: authHeader(token),
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		logger.Error().Str("op", op).Int("status", resp.StatusCode).Int("page", page).Msg("Failed to fetch courses")
		return nil, c.api.StatusErr(op, resp)
	}

	var body coursePage
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	courses := make([]model.Course, 0, len(body.Data))
	for _, item := range body.Data {
		price := item.Price.String()
		if price == "" || price == "0" {
			price = freeLabel
		}
		courses = append(courses, model.Course{ID: item.ID.String(), Title: item.Title, Price: price})
	}
	return courses, nil
}

// ListLessons returns the lessons of a course in backend order
func (c *Client) ListLessons(ctx context.Context, courseID, token string) ([]model.Lesson, error) {
	const op = "list_lessons"
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     op,
		Path:   "/auth/login/user/courses/" + url.PathEscape(courseID) + "/v2-lessons",
		Header: authHeader(token),
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, c.api.StatusErr(op, resp)
	}

	var body []lesson
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	lessons := make([]model.Lesson, 0, len(body))
	for _, l := range body {
		lessons = append(lessons, model.Lesson{ID: l.ID.String(), Title: l.Title})
	}
	return lessons, nil
}

// ListLessonVideos is best-effort: failures are logged and yield no videos,
// and a missing name becomes "Untitled".
func (c *Client) ListLessonVideos(ctx context.Context, lessonID, token string) []model.Video {
	const op = "list_lesson_videos"
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     op,
		Path:   "/auth/login/api/lessons/" + url.PathEscape(lessonID),
		Header: authHeader(token),
	})
	if err != nil {
		logger.Warn().Err(err).Str("op", op).Str("lesson_id", lessonID).Msg("Lesson fetch failed")
		return nil
	}
	if !resp.OK() {
		logger.Warn().Str("op", op).Int("status", resp.StatusCode).Str("lesson_id", lessonID).Msg("Lesson fetch failed")
		return nil
	}

	var body lessonDetails
	if err := resp.Decode(&body); err != nil {
		logger.Warn().Err(err).Str("op", op).Str("lesson_id", lessonID).Msg("Lesson body unreadable")
		return nil
	}

	videos := make([]model.Video, 0, len(body.Videos))
	for _, v := range body.Videos {
		name := untitled
		if v.Name != nil && *v.Name != "" {
			name = *v.Name
		}
		videos = append(videos, model.Video{Name: name, URL: v.VideoURL})
	}
	return videos
}
