package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"batch_txt_bot/src/access"
	"batch_txt_bot/src/backend"
	"batch_txt_bot/src/extractor"
	"batch_txt_bot/src/metrics"
	"batch_txt_bot/src/model"
	"batch_txt_bot/src/storage"

	"github.com/stretchr/testify/require"
)

const (
	testChat    int64 = 10
	testUser    int64 = 7
	testOwner   int64 = 1
	testAudit   int64 = -100
	testSession       = "10:7"
	testUsername      = "aspirant"
)

type sentText struct {
	ChatID   int64
	Text     string
	Markdown bool
}

type sentDoc struct {
	ChatID  int64
	Name    string
	Data    string
	Caption string
}

type recordingOutbox struct {
	mu       sync.Mutex
	texts    []sentText
	docs     []sentDoc
	failDocs map[int64]error
}

func (o *recordingOutbox) SendText(_ context.Context, chatID int64, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.texts = append(o.texts, sentText{ChatID: chatID, Text: text})
	return nil
}

func (o *recordingOutbox) SendMarkdown(_ context.Context, chatID int64, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.texts = append(o.texts, sentText{ChatID: chatID, Text: text, Markdown: true})
	return nil
}

func (o *recordingOutbox) SendDocument(_ context.Context, chatID int64, name string, data []byte, caption string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.failDocs[chatID]; err != nil {
		return err
	}
	o.docs = append(o.docs, sentDoc{ChatID: chatID, Name: name, Data: string(data), Caption: caption})
	return nil
}

func (o *recordingOutbox) lastText() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.texts) == 0 {
		return ""
	}
	return o.texts[len(o.texts)-1].Text
}

func (o *recordingOutbox) allText() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.texts))
	for _, t := range o.texts {
		out = append(out, t.Text)
	}
	return out
}

type recordingFaults struct {
	mu     sync.Mutex
	faults []string
}

func (f *recordingFaults) Report(_ context.Context, source string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, source+": "+err.Error())
}

type fakePW struct {
	batches      []model.Batch
	batchesErr   error
	subjects     []model.Subject
	subjectsErr  error
	pages        map[string][][]model.Content
	contentCalls map[string]int
	maxPages     int
}

func (f *fakePW) ListBatches(context.Context, string) ([]model.Batch, error) {
	if f.batchesErr != nil {
		return nil, f.batchesErr
	}
	return f.batches, nil
}

func (f *fakePW) ListSubjects(context.Context, string, string) ([]model.Subject, error) {
	return f.subjects, f.subjectsErr
}

func (f *fakePW) Contents(_, subjectID, _ string) *backend.Pager[model.Content] {
	return backend.NewPager(func(_ context.Context, page int) ([]model.Content, error) {
		f.contentCalls[subjectID]++
		pages := f.pages[subjectID]
		if page > len(pages) {
			return nil, nil
		}
		return pages[page-1], nil
	}, f.maxPages)
}

type fakeKGS struct {
	token      string
	loginErr   error
	courses    []model.Course
	coursesErr error
	lessons    []model.Lesson
	lessonsErr error
	videos     map[string][]model.Video
	logins     []string
}

func (f *fakeKGS) Login(_ context.Context, phone, password string) (string, error) {
	f.logins = append(f.logins, phone)
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

func (f *fakeKGS) ListCourses(context.Context, string) ([]model.Course, error) {
	if f.coursesErr != nil {
		return nil, f.coursesErr
	}
	return f.courses, nil
}

func (f *fakeKGS) ListLessons(context.Context, string, string) ([]model.Lesson, error) {
	return f.lessons, f.lessonsErr
}

func (f *fakeKGS) ListLessonVideos(_ context.Context, lessonID, _ string) []model.Video {
	return f.videos[lessonID]
}

type harness struct {
	store   *storage.MemoryStorage
	out     *recordingOutbox
	faults  *recordingFaults
	metrics *metrics.Metrics
	manager *Manager
	service *Service
	gate    *access.Gate
	msgs    Messages
}

func newHarness(t *testing.T, flows ...func(x *extractor.Extractor) Flow) *harness {
	t.Helper()
	h := &harness{
		store:   storage.NewMemoryStorage(),
		out:     &recordingOutbox{},
		faults:  &recordingFaults{},
		metrics: metrics.New(),
		msgs:    DefaultMessages(),
	}
	x := extractor.New(t.TempDir(), h.metrics)
	built := make([]Flow, 0, len(flows))
	for _, f := range flows {
		built = append(built, f(x))
	}
	h.manager = NewManager(Config{
		Store:    h.store,
		TTL:      time.Minute,
		Outbox:   h.out,
		Faults:   h.faults,
		Metrics:  h.metrics,
		Messages: h.msgs,
	}, built...)
	h.gate = access.NewGate(testOwner, []string{"start", "pw", "kgs"}, h.metrics)
	h.service = NewService(h.manager, h.gate)
	return h
}

func (h *harness) command(t *testing.T, user int64, name, args string) {
	t.Helper()
	require.NoError(t, h.service.Handle(context.Background(), Inbound{ChatID: testChat, UserID: user, Username: testUsername, Command: name, Args: args}))
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, h.service.Handle(context.Background(), Inbound{ChatID: testChat, UserID: testUser, Username: testUsername, Text: text}))
}

func (h *harness) state(t *testing.T) State {
	t.Helper()
	rec, err := h.store.Get(context.Background(), testSession)
	if err != nil {
		require.ErrorIs(t, err, storage.ErrNotFound)
		return StateTerminated
	}
	return State(rec.State)
}
