package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/event"
)

func TestJobTrigger(t *testing.T) {
	api := &mockJobAPI{}
	journal := &mockJournalRepo{}
	pub := &mockPublisher{}
	svc := NewJobService(api, []string{"PASSBY", "mtm"}, journal, pub, nil, &mockLogger{})

	trigger, err := svc.Trigger(context.Background(), oprKep, " passby ", map[string]string{"date": " 2024-01-31 "})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(trigger.RunID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "PASSBY", trigger.JobName)
	assert.True(t, trigger.Accepted)

	require.Len(t, api.triggers, 1)
	assert.Equal(t, port.JobTriggerRequest{
		RunID:       trigger.RunID,
		JobName:     "PASSBY",
		RequestedBy: "u-ok",
		Params:      map[string]string{"date": "2024-01-31"},
	}, api.triggers[0])

	require.Len(t, journal.entries, 1)
	assert.Equal(t, entity.SubjectJob, journal.entries[0].Subject)
	assert.Equal(t, trigger.RunID, journal.entries[0].SubjectID)
	assert.Equal(t, JobActionTrigger, journal.entries[0].Action)

	require.Len(t, pub.events, 1)
	assert.Equal(t, event.TypeJobTriggered, pub.events[0].Type)
	assert.Equal(t, trigger.RunID, pub.events[0].CorrelationID)

	assert.Equal(t, []string{"MTM", "PASSBY"}, svc.KnownJobs())
}

func TestJobTrigger_Rejections(t *testing.T) {
	t.Run("unknown job", func(t *testing.T) {
		api := &mockJobAPI{}
		svc := NewJobService(api, []string{"PASSBY"}, nil, nil, nil, &mockLogger{})
		_, err := svc.Trigger(context.Background(), admin, "DROP_TABLES", nil)
		assert.ErrorIs(t, err, ErrUnknownJob)
		assert.Empty(t, api.triggers)
	})

	t.Run("branch role", func(t *testing.T) {
		api := &mockJobAPI{}
		svc := NewJobService(api, []string{"PASSBY"}, nil, nil, nil, &mockLogger{})
		_, err := svc.Trigger(context.Background(), spvCab, "PASSBY", nil)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, api.triggers)
	})

	t.Run("not accepted", func(t *testing.T) {
		api := &mockJobAPI{triggerFunc: func(ctx context.Context, req port.JobTriggerRequest) (*port.JobTriggerResult, error) {
			return &port.JobTriggerResult{Accepted: false, Message: "already running"}, nil
		}}
		journal := &mockJournalRepo{}
		svc := NewJobService(api, []string{"PASSBY"}, journal, nil, nil, &mockLogger{})
		_, err := svc.Trigger(context.Background(), admin, "PASSBY", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already running")
		require.Len(t, journal.entries, 1)
		assert.Equal(t, entity.OutcomeFailed, journal.entries[0].Outcome)
	})

	t.Run("remote error", func(t *testing.T) {
		remote := errors.New("boom")
		api := &mockJobAPI{triggerFunc: func(ctx context.Context, req port.JobTriggerRequest) (*port.JobTriggerResult, error) {
			return nil, remote
		}}
		svc := NewJobService(api, []string{"PASSBY"}, nil, nil, nil, &mockLogger{})
		_, err := svc.Trigger(context.Background(), admin, "PASSBY", nil)
		assert.ErrorIs(t, err, remote)
	})
}

func TestJobLogs_NewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	api := &mockJobAPI{listLogsFunc: func(ctx context.Context, userID string) ([]*entity.JobLog, error) {
		return []*entity.JobLog{
			{FileName: "passby_1.log", JobName: "PASSBY", ModifiedAt: base},
			{FileName: "mtm_1.log", JobName: "MTM", ModifiedAt: base.Add(2 * time.Hour)},
			{FileName: "passby_2.log", JobName: "PASSBY", ModifiedAt: base.Add(time.Hour)},
		}, nil
	}}
	svc := NewJobService(api, nil, nil, nil, nil, &mockLogger{})

	page, err := svc.Logs(context.Background(), spvKep, datatable.Query{})
	require.NoError(t, err)
	require.Len(t, page.Rows, 3)
	assert.Equal(t, "mtm_1.log", page.Rows[0].FileName)
	assert.Equal(t, "passby_1.log", page.Rows[2].FileName)

	page, err = svc.Logs(context.Background(), spvKep, datatable.Query{Search: "passby", Fields: JobLogSearchFields})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 2)

	_, err = svc.Logs(context.Background(), oprCab, datatable.Query{})
	assert.ErrorIs(t, err, ErrForbidden)
}
