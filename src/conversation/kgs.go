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

// ExampurAPI is the backend the kgs flow talks to
type ExampurAPI interface {
	Login(ctx context.Context, phone, password string) (string, error)
	ListCourses(ctx context.Context, token string) ([]model.Course, error)
	ListLessons(ctx context.Context, courseID, token string) ([]model.Lesson, error)
	ListLessonVideos(ctx context.Context, lessonID, token string) []model.Video
}

const (
	loginWithPassword = "1"
	loginWithToken    = "2"
)

type kgsChoiceStage struct{}

type kgsIdentifierStage struct {
	Method string `json:"method"`
}

// kgsSecretStage never carries the secret: it is consumed in the same turn
type kgsSecretStage struct {
	Method     string `json:"method"`
	Identifier string `json:"identifier"`
}

type kgsBatchStage struct {
	Token   string         `json:"token"`
	Courses []model.Course `json:"courses"`
}

// KGSFlow is login choice, identifier, password or token, then course
// selection. The chosen course is flattened into a single artifact.
type KGSFlow struct {
	api       ExampurAPI
	extractor *extractor.Extractor
}

func NewKGSFlow(api ExampurAPI, x *extractor.Extractor) *KGSFlow {
	return &KGSFlow{api: api, extractor: x}
}

func (f *KGSFlow) Name() string { return "kgs" }

func (f *KGSFlow) Order() []State {
	return []State{
		StateStart,
		StateAwaitingLoginChoice,
		StateAwaitingIdentifier,
		StateAwaitingSecretOrToken,
		StateAwaitingBatchSelection,
	}
}

func (f *KGSFlow) DecodeStage(state State, payload []byte) (any, error) {
	switch state {
	case StateAwaitingLoginChoice:
		return decodeAs[kgsChoiceStage](payload)
	case StateAwaitingIdentifier:
		return decodeAs[kgsIdentifierStage](payload)
	case StateAwaitingSecretOrToken:
		return decodeAs[kgsSecretStage](payload)
	case StateAwaitingBatchSelection:
		return decodeAs[kgsBatchStage](payload)
	}
	return nil, fmt.Errorf("kgs: no stage for state %s", state)
}

func (f *KGSFlow) Begin(ctx context.Context, t *Turn) Transition {
	t.Say(ctx, t.Msg.KGS.Welcome)
	return Advance(StateAwaitingLoginChoice, kgsChoiceStage{})
}

func (f *KGSFlow) Step(ctx context.Context, t *Turn, state State, stage any, text string) (Transition, error) {
	text = strings.TrimSpace(text)

	switch st := stage.(type) {
	case kgsChoiceStage:
		return f.choice(ctx, t, st, text), nil
	case kgsIdentifierStage:
		return f.identifier(ctx, t, st, text), nil
	case kgsSecretStage:
		return f.secret(ctx, t, st, text), nil
	case kgsBatchStage:
		return f.batch(ctx, t, st, text)
	}
	return Transition{}, fmt.Errorf("kgs: unexpected stage %T in state %s", stage, state)
}

func (f *KGSFlow) choice(ctx context.Context, t *Turn, st kgsChoiceStage, choice string) Transition {
	if choice != loginWithPassword && choice != loginWithToken {
		t.Say(ctx, t.Msg.KGS.InvalidChoice)
		return Stay(StateAwaitingLoginChoice, st)
	}
	t.Say(ctx, t.Msg.KGS.AskUserID)
	return Advance(StateAwaitingIdentifier, kgsIdentifierStage{Method: choice})
}

func (f *KGSFlow) identifier(ctx context.Context, t *Turn, st kgsIdentifierStage, id string) Transition {
	if id == "" {
		t.Say(ctx, t.Msg.KGS.AskUserID)
		return Stay(StateAwaitingIdentifier, st)
	}

	if st.Method == loginWithPassword {
		t.Say(ctx, t.Msg.KGS.AskPassword)
	} else {
		t.Say(ctx, t.Msg.KGS.AskToken)
	}
	return Advance(StateAwaitingSecretOrToken, kgsSecretStage{Method: st.Method, Identifier: id})
}

func (f *KGSFlow) secret(ctx context.Context, t *Turn, st kgsSecretStage, secret string) Transition {
	if secret == "" {
		if st.Method == loginWithPassword {
			t.Say(ctx, t.Msg.KGS.AskPassword)
		} else {
			t.Say(ctx, t.Msg.KGS.AskToken)
		}
		return Stay(StateAwaitingSecretOrToken, st)
	}

	log := t.Log.With().Str("identifier", st.Identifier).Str("method", st.Method).Logger()
	log.Info().Msg("Login attempt")

	token := secret
	if st.Method == loginWithPassword {
		var err error
		token, err = f.api.Login(ctx, st.Identifier, secret)
		switch {
		case errors.Is(err, backend.ErrAuth):
			t.Say(ctx, t.Msg.KGS.LoginFailed)
			return Terminate(OutcomeAuthError, err)
		case err != nil:
			t.Say(ctx, t.Msg.FetchFailed)
			return Terminate(OutcomeFetchError, err)
		}
	}

	courses, err := f.api.ListCourses(ctx, token)
	switch {
	case errors.Is(err, backend.ErrAuth):
		t.Say(ctx, t.Msg.KGS.InvalidToken)
		return Terminate(OutcomeAuthError, err)
	case err != nil:
		t.Say(ctx, t.Msg.FetchFailed)
		return Terminate(OutcomeFetchError, err)
	case len(courses) == 0:
		t.Say(ctx, t.Msg.KGS.NoBatches)
		return Terminate(OutcomeEmptyResult, nil)
	}
	log.Info().Int("courses", len(courses)).Msg("Courses listed")

	var b strings.Builder
	b.WriteString(t.Msg.KGS.LoginSuccess)
	if st.Method == loginWithPassword {
		fmt.Fprintf(&b, t.Msg.KGS.TokenEcho, token)
	}
	b.WriteString(t.Msg.KGS.BatchesHeader)
	for _, c := range courses {
		fmt.Fprintf(&b, t.Msg.KGS.BatchLine, c.Title, c.ID, c.Price)
	}
	b.WriteString(t.Msg.KGS.AskBatchID)
	t.SayMarkdown(ctx, b.String())

	return Advance(StateAwaitingBatchSelection, kgsBatchStage{Token: token, Courses: courses})
}

func (f *KGSFlow) batch(ctx context.Context, t *Turn, st kgsBatchStage, id string) (Transition, error) {
	course, ok := findCourse(st.Courses, id)
	if !ok {
		t.Say(ctx, t.Msg.KGS.InvalidBatchID)
		return Stay(StateAwaitingBatchSelection, st), nil
	}

	t.Say(ctx, t.Msg.ExtractionStarted)

	lessons, err := f.api.ListLessons(ctx, course.ID, st.Token)
	if err != nil {
		t.Say(ctx, t.Msg.KGS.LessonsFailed)
		return Terminate(OutcomeFetchError, err), nil
	}

	var entries []model.ContentEntry
	for _, l := range lessons {
		for _, v := range f.api.ListLessonVideos(ctx, l.ID, st.Token) {
			entries = append(entries, model.ContentEntry{Title: v.Name, URL: v.URL})
		}
	}

	a, err := f.extractor.Extract(ctx, t.Documents(),
		"KGS_"+course.Title+"_"+course.ID+".txt",
		fmt.Sprintf(t.Msg.KGS.Caption, course.Title),
		entries, extractor.Destination{Label: "user", ChatID: t.ChatID})
	switch {
	case errors.Is(err, extractor.ErrNoContent):
		t.Say(ctx, t.Msg.NoContent)
		return Terminate(OutcomeEmptyResult, nil), nil
	case errors.Is(err, extractor.ErrDelivery):
		t.Say(ctx, fmt.Sprintf(t.Msg.DeliveryFailed, err))
		return Terminate(OutcomeDeliveryError, err), nil
	case err != nil:
		return Transition{}, err
	}

	t.Log.Info().Str("course_id", course.ID).Int("lessons", len(lessons)).Int("entries", a.Entries).Msg("Course delivered")
	t.Say(ctx, t.Msg.ExtractionDone)
	return Terminate(OutcomeCompleted, nil), nil
}

func findCourse(courses []model.Course, id string) (model.Course, bool) {
	if id == "" {
		return model.Course{}, false
	}
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return model.Course{}, false
}
