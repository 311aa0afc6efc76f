// Package penpencil talks to the token-authenticated batch/subject platform
// behind the /pw flow.
package penpencil

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"batch_txt_bot/src/backend"
	"batch_txt_bot/src/logger"
	"batch_txt_bot/src/metrics"
	"batch_txt_bot/src/model"
)

const (
	backendName = "penpencil"
	contentType = "exercises-notes-videos"
	freeLabel   = "Free"
)

type batchPage struct {
	Data []struct {
		ID    backend.FlexString `json:"_id"`
		Name  string             `json:"name"`
		FeeID *struct {
			Total backend.FlexString `json:"total"`
		} `json:"feeId"`
	} `json:"data"`
}

type batchDetails struct {
	Data struct {
		Subjects []struct {
			ID      backend.FlexString `json:"_id"`
			Subject string             `json:"subject"`
		} `json:"subjects"`
	} `json:"data"`
}

type contentPage struct {
	Data []struct {
		Topic *string `json:"topic"`
		URL   string  `json:"url"`
	} `json:"data"`
}

// Client is stateless apart from its configuration
type Client struct {
	api      *backend.Client
	maxPages int
}

// New creates a client for cfg.BaseURL
func New(cfg model.PenpencilConfig, httpClient *http.Client, m *metrics.Metrics) *Client {
	header := http.Header{
		"Client-Id":  {cfg.ClientID},
		"User-Agent": {"Android"},
	}
	return &Client{
		api:      backend.NewClient(backendName, cfg.BaseURL, httpClient, header, m),
		maxPages: cfg.MaxPages,
	}
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

// ListBatches walks every page of the caller's batches. A 401 on any page
// fails with backend.ErrAuth; any other failure discards what was gathered.
func (c *Client) ListBatches(ctx context.Context, token string) ([]model.Batch, error) {
	return backend.Collect(ctx, func(ctx context.Context, page int) ([]model.Batch, error) {
		return c.batchPage(ctx, token, page)
	}, c.maxPages)
}

func (c *Client) batchPage(ctx context.Context, token string, page int) ([]model.Batch, error) {
	const op = "list_batches"
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     op,
		Path:   "/v3/batches/my-batches",
		Query:  url.Values{"page": {strconv.Itoa(page)}, "mode": {"1"}},
		Header: bearer(token),
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		logger.Error().Str("op", op).Int("status", resp.StatusCode).Int("page", page).Msg("Failed to fetch batches")
		return nil, c.api.StatusErr(op, resp)
	}

	var body batchPage
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	batches := make([]model.Batch, 0, len(body.Data))
	for _, b := range body.Data {
		price := freeLabel
		if b.FeeID != nil && b.FeeID.Total != "" {
			price = b.FeeID.Total.String()
		}
		batches = append(batches, model.Batch{ID: b.ID.String(), Name: b.Name, Price: price})
	}
	return batches, nil
}

// ListSubjects returns the subjects of a batch. A non-success status is
// logged and reported as no subjects, not as an error.
func (c *Client) ListSubjects(ctx context.Context, batchID, token string) ([]model.Subject, error) {
	const op = "list_subjects"
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     op,
		Path:   "/v3/batches/" + url.PathEscape(batchID) + "/details",
		Header: bearer(token),
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		logger.Error().Str("op", op).Int("status", resp.StatusCode).Str("batch_id", batchID).Msg("Failed to fetch subjects")
		return nil, nil
	}

	var body batchDetails
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	subjects := make([]model.Subject, 0, len(body.Data.Subjects))
	for _, s := range body.Data.Subjects {
		subjects = append(subjects, model.Subject{ID: s.ID.String(), Name: s.Subject})
	}
	return subjects, nil
}

// ListContents fetches one page of a subject's contents. A non-success status
// reads as an empty page, which ends pagination.
func (c *Client) ListContents(ctx context.Context, batchID, subjectID string, page int, token string) ([]model.Content, error) {
	const op = "list_contents"
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     op,
		Path:   "/v2/batches/" + url.PathEscape(batchID) + "/subject/" + url.PathEscape(subjectID) + "/contents",
		Query:  url.Values{"page": {strconv.Itoa(page)}, "contentType": {contentType}},
		Header: bearer(token),
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		logger.Error().Str("op", op).Int("status", resp.StatusCode).
			Str("batch_id", batchID).Str("subject_id", subjectID).Int("page", page).
			Msg("Failed to fetch batch contents")
		return nil, nil
	}

	var body contentPage
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	contents := make([]model.Content, 0, len(body.Data))
	for _, item := range body.Data {
		topic := "Unknown"
		if item.Topic != nil {
			topic = *item.Topic
		}
		contents = append(contents, model.Content{Topic: topic, URL: item.URL})
	}
	return contents, nil
}

// Contents returns a lazy pager over every page of a subject
func (c *Client) Contents(batchID, subjectID, token string) *backend.Pager[model.Content] {
	return backend.NewPager(func(ctx context.Context, page int) ([]model.Content, error) {
		return c.ListContents(ctx, batchID, subjectID, page, token)
	}, c.maxPages)
}
