package conversation

import (
	"context"
	"errors"
	"testing"

	"batch_txt_bot/src/backend"
	"batch_txt_bot/src/extractor"
	"batch_txt_bot/src/model"
	"batch_txt_bot/src/storage"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakePW() *fakePW {
	return &fakePW{
		batches:  []model.Batch{{ID: "b1", Name: "Arjuna JEE", Price: "Free"}},
		subjects: []model.Subject{{ID: "s1", Name: "Physics"}, {ID: "s2", Name: "Chemistry"}},
		pages: map[string][][]model.Content{
			"s1": {
				{{Topic: "Kinematics: L1", URL: "https://v/1"}, {Topic: "Notes", URL: ""}},
				{{Topic: "Kinematics L2", URL: "https://v/2"}},
			},
		},
		contentCalls: map[string]int{},
		maxPages:     10,
	}
}

func pwHarness(t *testing.T, api *fakePW) *harness {
	return newHarness(t, func(x *extractor.Extractor) Flow { return NewPWFlow(api, x, testAudit) })
}

func TestPW_AuthErrorTerminatesWithoutListing(t *testing.T) {
	api := newFakePW()
	api.batchesErr = &backend.StatusError{Backend: "penpencil", Op: "list_batches", StatusCode: 401}
	h := pwHarness(t, api)

	h.command(t, testUser, "pw", "")
	assert.Equal(t, StateAwaitingToken, h.state(t))

	h.text(t, "expired-token")

	_, err := h.store.Get(context.Background(), testSession)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, h.msgs.PW.InvalidToken, h.out.lastText())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ConversationsEnded.WithLabelValues("pw", "auth_error")))
}

func TestPW_FetchErrorAndEmptyListing(t *testing.T) {
	api := newFakePW()
	api.batchesErr = &backend.StatusError{Backend: "penpencil", Op: "list_batches", StatusCode: 502}
	h := pwHarness(t, api)

	h.command(t, testUser, "pw", "")
	h.text(t, "tok")
	assert.Equal(t, StateTerminated, h.state(t))
	assert.Equal(t, h.msgs.FetchFailed, h.out.lastText())

	api.batchesErr = nil
	api.batches = nil
	h.command(t, testUser, "pw", "")
	h.text(t, "tok")
	assert.Equal(t, StateTerminated, h.state(t))
	assert.Equal(t, h.msgs.PW.NoBatches, h.out.lastText())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ConversationsEnded.WithLabelValues("pw", "empty_result")))
}

func TestPW_FullRun(t *testing.T) {
	api := newFakePW()
	h := pwHarness(t, api)

	h.command(t, testUser, "pw", "")
	h.text(t, "tok")
	assert.Equal(t, StateAwaitingBatchID, h.state(t))
	assert.Contains(t, h.out.lastText(), "```b1```")

	h.text(t, "b1")
	assert.Equal(t, StateAwaitingSubjectIDs, h.state(t))
	assert.Contains(t, h.out.lastText(), "s1: Physics")

	h.text(t, "s1")
	assert.Equal(t, StateTerminated, h.state(t))

	assert.Equal(t, 3, api.contentCalls["s1"])
	require.Len(t, h.out.docs, 2)
	user, audit := h.out.docs[0], h.out.docs[1]
	assert.Equal(t, testChat, user.ChatID)
	assert.Equal(t, testAudit, audit.ChatID)
	assert.Equal(t, "b1_Physics.txt", user.Name)
	assert.Equal(t, "Kinematics  L1: https://v/1\nKinematics L2: https://v/2\n", user.Data)
	assert.Equal(t, user.Data, audit.Data)
	assert.Equal(t, "Contents for Physics.", user.Caption)
	assert.Equal(t, "Contents for Physics saved and sent to the user.", audit.Caption)
	assert.Equal(t, h.msgs.ExtractionDone, h.out.lastText())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ConversationsEnded.WithLabelValues("pw", "completed")))
}

func TestPW_RerunIsByteIdentical(t *testing.T) {
	api := newFakePW()
	h := pwHarness(t, api)

	run := func() sentDoc {
		h.out.docs = nil
		h.command(t, testUser, "pw", "")
		h.text(t, "tok")
		h.text(t, "b1")
		h.text(t, "s1")
		require.NotEmpty(t, h.out.docs)
		return h.out.docs[0]
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Equal(t, 6, api.contentCalls["s1"])
}

func TestPW_ValidationRePrompts(t *testing.T) {
	h := pwHarness(t, newFakePW())

	h.command(t, testUser, "pw", "")
	h.text(t, "   ")
	assert.Equal(t, StateAwaitingToken, h.state(t))

	h.text(t, "tok")
	h.text(t, "b1 b2")
	assert.Equal(t, StateAwaitingBatchID, h.state(t))
	assert.Equal(t, h.msgs.PW.InvalidBatchID, h.out.lastText())

	h.text(t, "b1")
	h.text(t, " & &")
	assert.Equal(t, StateAwaitingSubjectIDs, h.state(t))
	assert.Equal(t, h.msgs.PW.InvalidSubjectIDs, h.out.lastText())
	assert.Empty(t, h.out.docs)
}

func TestPW_MultipleSubjects(t *testing.T) {
	api := newFakePW()
	api.pages["s9"] = [][]model.Content{{{Topic: "Extra", URL: "https://v/9"}}}
	h := pwHarness(t, api)

	h.command(t, testUser, "pw", "")
	h.text(t, "tok")
	h.text(t, "b1")
	h.text(t, "s1&s2&s9")

	var names []string
	for _, d := range h.out.docs {
		if d.ChatID == testChat {
			names = append(names, d.Name)
		}
	}
	assert.Equal(t, []string{"b1_Physics.txt", "b1_Subject_s9.txt"}, names)
	assert.Contains(t, h.out.allText(), "No content found for subject ID s2.")
}

func TestPW_NoSubjects(t *testing.T) {
	api := newFakePW()
	api.subjects = nil
	h := pwHarness(t, api)

	h.command(t, testUser, "pw", "")
	h.text(t, "tok")
	h.text(t, "b1")

	assert.Equal(t, StateTerminated, h.state(t))
	assert.Equal(t, h.msgs.PW.NoSubjects, h.out.lastText())
}

func TestPW_PaginationLimitSkipsSubject(t *testing.T) {
	api := newFakePW()
	api.maxPages = 1
	h := pwHarness(t, api)

	h.command(t, testUser, "pw", "")
	h.text(t, "tok")
	h.text(t, "b1")
	h.text(t, "s1")

	assert.Empty(t, h.out.docs)
	assert.Contains(t, h.out.allText(), "Failed to fetch contents for subject ID s1.")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ConversationsEnded.WithLabelValues("pw", "fetch_error")))
}

func TestPW_UserDeliveryFailureSkipsAudit(t *testing.T) {
	h := pwHarness(t, newFakePW())
	h.out.failDocs = map[int64]error{testChat: errors.New("bot was blocked by the user")}

	h.command(t, testUser, "pw", "")
	h.text(t, "tok")
	h.text(t, "b1")
	h.text(t, "s1")

	assert.Empty(t, h.out.docs)
	assert.Contains(t, h.out.lastText(), "Error sending file")
	assert.Equal(t, StateTerminated, h.state(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ConversationsEnded.WithLabelValues("pw", "delivery_error")))
}

func TestPW_AuditFailureIsSurfaced(t *testing.T) {
	h := pwHarness(t, newFakePW())
	h.out.failDocs = map[int64]error{testAudit: errors.New("chat not found")}

	h.command(t, testUser, "pw", "")
	h.text(t, "tok")
	h.text(t, "b1")
	h.text(t, "s1")

	require.Len(t, h.out.docs, 1)
	assert.Equal(t, testChat, h.out.docs[0].ChatID)
	assert.Contains(t, h.out.lastText(), "audit")
}
