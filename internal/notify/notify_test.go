package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumexpert/internal/types"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func sampleSummary() Summary {
	return Summary{
		Job:       types.Job{ID: "j1", Title: "Go <Engineer>"},
		Completed: 2,
		Failed:    1,
		Top: []types.RankingResult{
			{CandidateName: "Ada", Score: 95},
			{Filename: "b.pdf", Score: 72},
		},
	}
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(sampleSummary())
	assert.Contains(t, out, "Go &lt;Engineer&gt;")
	assert.Contains(t, out, "2 ranked, 1 failed")
	assert.Contains(t, out, "1. Ada: 95% (excellent)")
	assert.Contains(t, out, "2. b.pdf: 72% (fair)")
}

func TestFormatSummary_LimitsTopCandidates(t *testing.T) {
	s := Summary{Job: types.Job{Title: "x"}}
	for i := 0; i < 8; i++ {
		s.Top = append(s.Top, types.RankingResult{CandidateName: "c", Score: 50})
	}
	out := FormatSummary(s)
	assert.Contains(t, out, "5. c")
	assert.NotContains(t, out, "6. c")
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifierWithSender(sender, 42)

	require.NoError(t, n.BatchCompleted(context.Background(), sampleSummary()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, sender.sent[0].ParseMode)
}

func TestTelegramNotifier_SendError(t *testing.T) {
	n := NewTelegramNotifierWithSender(&fakeSender{err: errors.New("boom")}, 1)
	err := n.BatchCompleted(context.Background(), sampleSummary())
	assert.ErrorContains(t, err, "boom")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	require.NoError(t, NewLogNotifier(log).BatchCompleted(context.Background(), sampleSummary()))
	assert.Contains(t, buf.String(), `"top_candidate":"Ada"`)
	assert.Contains(t, buf.String(), `"component":"notify"`)
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) BatchCompleted(context.Context, Summary) error {
	r.calls++
	return r.err
}

func TestMulti_CallsAllAndReturnsFirstError(t *testing.T) {
	a := &recordingNotifier{err: errors.New("first")}
	b := &recordingNotifier{err: errors.New("second")}
	c := &recordingNotifier{}

	err := Multi{a, b, c}.BatchCompleted(context.Background(), Summary{})
	assert.EqualError(t, err, "first")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, c.calls)
}
