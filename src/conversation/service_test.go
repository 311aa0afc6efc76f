package conversation

import (
	"testing"

	"batch_txt_bot/src/extractor"

	"github.com/stretchr/testify/assert"
)

func TestService_Start(t *testing.T) {
	h := pwHarness(t, newFakePW())

	h.command(t, testUser, "start", "")
	assert.Equal(t, h.msgs.Start, h.out.lastText())
}

func TestService_GateRefusesUntilHandlerEnabled(t *testing.T) {
	h := newHarness(t,
		func(x *extractor.Extractor) Flow { return NewPWFlow(newFakePW(), x, 0) },
		func(x *extractor.Extractor) Flow { return NewKGSFlow(newFakeKGS(), x) },
	)

	h.command(t, testOwner, "onowner", "")
	assert.Equal(t, h.msgs.Restricted, h.out.lastText())

	h.command(t, testUser, "pw", "")
	assert.Equal(t, h.msgs.Denied, h.out.lastText())
	assert.Equal(t, StateTerminated, h.state(t))

	h.command(t, testOwner, "on", "PW")
	assert.Equal(t, "Handler 'pw' is now enabled for everyone.", h.out.lastText())

	h.command(t, testUser, "pw", "")
	assert.Equal(t, StateAwaitingToken, h.state(t))

	h.command(t, testUser, "kgs", "")
	assert.Equal(t, h.msgs.Denied, h.out.lastText())
	assert.Equal(t, StateAwaitingToken, h.state(t))
}

func TestService_OwnerCommandsRefuseOthers(t *testing.T) {
	h := pwHarness(t, newFakePW())

	h.command(t, testUser, "onowner", "")
	assert.Equal(t, h.msgs.NotOwnerRestrict, h.out.lastText())
	assert.False(t, h.gate.Restricted())

	h.command(t, testUser, "offowner", "")
	assert.Equal(t, h.msgs.NotOwnerRelease, h.out.lastText())

	h.command(t, testUser, "on", "pw")
	assert.Equal(t, h.msgs.NotOwnerEnable, h.out.lastText())
	assert.Empty(t, h.gate.Enabled())
}

func TestService_EnableHandlerArguments(t *testing.T) {
	h := pwHarness(t, newFakePW())

	h.command(t, testOwner, "on", "")
	assert.Equal(t, h.msgs.HandlerMissing, h.out.lastText())

	h.command(t, testOwner, "on", "nope")
	assert.Equal(t, "Handler 'nope' does not exist.", h.out.lastText())

	h.command(t, testOwner, "offowner", "")
	assert.Equal(t, h.msgs.Unrestricted, h.out.lastText())
}

func TestService_MidConversationTextIsNotGated(t *testing.T) {
	h := pwHarness(t, newFakePW())

	h.command(t, testUser, "pw", "")
	h.command(t, testOwner, "onowner", "")
	h.text(t, "tok")

	assert.Equal(t, StateAwaitingBatchID, h.state(t))
}
