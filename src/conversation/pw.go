package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"batch_txt_bot/src/backend"
	"batch_txt_bot/src/extractor"
	"batch_txt_bot/src/model"
)

// PenpencilAPI is the backend the pw flow talks to
type PenpencilAPI interface {
	ListBatches(ctx context.Context, token string) ([]model.Batch, error)
	ListSubjects(ctx context.Context, batchID, token string) ([]model.Subject, error)
	Contents(batchID, subjectID, token string) *backend.Pager[model.Content]
}

// pw stages, one per state

type pwTokenStage struct{}

type pwBatchStage struct {
	Token   string        `json:"token"`
	Batches []model.Batch `json:"batches"`
}

type pwSubjectStage struct {
	Token    string          `json:"token"`
	BatchID  string          `json:"batch_id"`
	Subjects []model.Subject `json:"subjects"`
}

// PWFlow is token, batch id, subject ids. Each chosen subject becomes its own
// artifact, sent to the user and mirrored to the audit chat.
type PWFlow struct {
	api         PenpencilAPI
	extractor   *extractor.Extractor
	auditChatID int64
}

func NewPWFlow(api PenpencilAPI, x *extractor.Extractor, auditChatID int64) *PWFlow {
	return &PWFlow{api: api, extractor: x, auditChatID: auditChatID}
}

func (f *PWFlow) Name() string { return "pw" }

func (f *PWFlow) Order() []State {
	return []State{StateStart, StateAwaitingToken, StateAwaitingBatchID, StateAwaitingSubjectIDs}
}

func (f *PWFlow) DecodeStage(state State, payload []byte) (any, error) {
	switch state {
	case StateAwaitingToken:
		return decodeAs[pwTokenStage](payload)
	case StateAwaitingBatchID:
		return decodeAs[pwBatchStage](payload)
	case StateAwaitingSubjectIDs:
		return decodeAs[pwSubjectStage](payload)
	}
	return nil, fmt.Errorf("pw: no stage for state %s", state)
}

func (f *PWFlow) Begin(ctx context.Context, t *Turn) Transition {
	t.Say(ctx, t.Msg.PW.AskToken)
	return Advance(StateAwaitingToken, pwTokenStage{})
}

func (f *PWFlow) Step(ctx context.Context, t *Turn, state State, stage any, text string) (Transition, error) {
	text = strings.TrimSpace(text)

	switch st := stage.(type) {
	case pwTokenStage:
		return f.token(ctx, t, st, text), nil
	case pwBatchStage:
		return f.batch(ctx, t, st, text), nil
	case pwSubjectStage:
		return f.subjects(ctx, t, st, text), nil
	}
	return Transition{}, fmt.Errorf("pw: unexpected stage %T in state %s", stage, state)
}

func (f *PWFlow) token(ctx context.Context, t *Turn, st pwTokenStage, token string) Transition {
	if token == "" {
		t.Say(ctx, t.Msg.PW.AskToken)
		return Stay(StateAwaitingToken, st)
	}

	t.Say(ctx, t.Msg.PW.FetchingBatches)
	batches, err := f.api.ListBatches(ctx, token)
	switch {
	case errors.Is(err, backend.ErrAuth):
		t.Say(ctx, t.Msg.PW.InvalidToken)
		return Terminate(OutcomeAuthError, err)
	case err != nil:
		t.Say(ctx, t.Msg.FetchFailed)
		return Terminate(OutcomeFetchError, err)
	case len(batches) == 0:
		t.Say(ctx, t.Msg.PW.NoBatches)
		return Terminate(OutcomeEmptyResult, nil)
	}
	t.Log.Info().Int("batches", len(batches)).Msg("Batches listed")

	var b strings.Builder
	b.WriteString(t.Msg.PW.BatchesHeader)
	for _, batch := range batches {
		fmt.Fprintf(&b, t.Msg.PW.BatchLine, batch.ID, batch.Name, batch.Price)
	}
	b.WriteString(t.Msg.PW.AskBatchID)
	t.SayMarkdown(ctx, b.String())

	return Advance(StateAwaitingBatchID, pwBatchStage{Token: token, Batches: batches})
}

func (f *PWFlow) batch(ctx context.Context, t *Turn, st pwBatchStage, batchID string) Transition {
	if batchID == "" || strings.ContainsAny(batchID, " \t\n") {
		t.Say(ctx, t.Msg.PW.InvalidBatchID)
		return Stay(StateAwaitingBatchID, st)
	}

	subjects, err := f.api.ListSubjects(ctx, batchID, st.Token)
	if err != nil {
		t.Say(ctx, t.Msg.FetchFailed)
		return Terminate(OutcomeFetchError, err)
	}
	if len(subjects) == 0 {
		t.Say(ctx, t.Msg.PW.NoSubjects)
		return Terminate(OutcomeEmptyResult, nil)
	}

	var b strings.Builder
	b.WriteString(t.Msg.PW.SubjectsHeader)
	for _, s := range subjects {
		fmt.Fprintf(&b, t.Msg.PW.SubjectLine, s.ID, s.Name)
	}
	b.WriteString(t.Msg.PW.AskSubjectIDs)
	t.Say(ctx, b.String())

	return Advance(StateAwaitingSubjectIDs, pwSubjectStage{Token: st.Token, BatchID: batchID, Subjects: subjects})
}

func (f *PWFlow) subjects(ctx context.Context, t *Turn, st pwSubjectStage, text string) Transition {
	ids := splitIDs(text)
	if len(ids) == 0 {
		t.Say(ctx, t.Msg.PW.InvalidSubjectIDs)
		return Stay(StateAwaitingSubjectIDs, st)
	}

	t.Say(ctx, t.Msg.ExtractionStarted)

	var delivered, fetchFailed, deliveryFailed int
	var lastErr error
	for _, id := range ids {
		log := t.Log.With().Str("batch_id", st.BatchID).Str("subject_id", id).Logger()

		entries, pages, err := f.collect(ctx, st, id)
		if err != nil {
			log.Error().Err(err).Int("pages", pages).Msg("Subject contents failed")
			t.Say(ctx, fmt.Sprintf(t.Msg.PW.SubjectFailed, id))
			fetchFailed++
			lastErr = err
			continue
		}

		name := subjectName(st.Subjects, id)
		dests := []extractor.Destination{{Label: "user", ChatID: t.ChatID}}
		if f.auditChatID != 0 {
			dests = append(dests, extractor.Destination{
				Label:   "audit",
				ChatID:  f.auditChatID,
				Caption: fmt.Sprintf(t.Msg.PW.AuditCaption, name),
			})
		}
		_, err = f.extractor.Extract(ctx, t.Documents(),
			st.BatchID+"_"+name+".txt",
			fmt.Sprintf(t.Msg.PW.UserCaption, name),
			entries, dests...)
		switch {
		case errors.Is(err, extractor.ErrNoContent):
			t.Say(ctx, fmt.Sprintf(t.Msg.PW.NoContentSubject, id))
		case errors.Is(err, extractor.ErrDelivery):
			t.Say(ctx, fmt.Sprintf(t.Msg.DeliveryFailed, err))
			deliveryFailed++
			lastErr = err
		case err != nil:
			log.Error().Err(err).Msg("Artifact could not be written")
			t.Say(ctx, fmt.Sprintf(t.Msg.PW.SubjectFailed, id))
			fetchFailed++
			lastErr = err
		default:
			log.Info().Int("pages", pages).Int("entries", len(entries)).Msg("Subject delivered")
			delivered++
		}
	}

	switch {
	case deliveryFailed > 0:
		return Terminate(OutcomeDeliveryError, lastErr)
	case delivered > 0:
		t.Say(ctx, t.Msg.ExtractionDone)
		return Terminate(OutcomeCompleted, nil)
	case fetchFailed > 0:
		return Terminate(OutcomeFetchError, lastErr)
	}
	return Terminate(OutcomeEmptyResult, nil)
}

// collect drains one subject's contents in page order
func (f *PWFlow) collect(ctx context.Context, st pwSubjectStage, subjectID string) ([]model.ContentEntry, int, error) {
	var entries []model.ContentEntry
	pager := f.api.Contents(st.BatchID, subjectID, st.Token)
	for pager.Next(ctx) {
		for _, c := range pager.Items() {
			entries = append(entries, model.ContentEntry{Title: c.Topic, URL: c.URL})
		}
	}
	if err := pager.Err(); err != nil {
		return nil, pager.Page(), err
	}
	return entries, pager.Page(), nil
}

func subjectName(subjects []model.Subject, id string) string {
	for _, s := range subjects {
		if s.ID == id && s.Name != "" {
			return s.Name
		}
	}
	return "Subject_" + id
}

// splitIDs splits "a&b& c" into trimmed, non-empty ids
func splitIDs(text string) []string {
	var ids []string
	for _, part := range strings.Split(text, "&") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
