package processing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/RMahshie/fretcheck/internal/capture"
	"github.com/RMahshie/fretcheck/internal/notes"
	"github.com/RMahshie/fretcheck/internal/repository/postgres"
	"github.com/RMahshie/fretcheck/internal/storage"
	"github.com/RMahshie/fretcheck/internal/tuner"
	"github.com/RMahshie/fretcheck/pkg/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
	pgContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MockTuningRepository implements repository.TuningRepository for testing
type MockTuningRepository struct {
	mock.Mock
}

func (m *MockTuningRepository) Create(ctx context.Context, tuning *models.Tuning) error {
	args := m.Called(ctx, tuning)
	return args.Error(0)
}

func (m *MockTuningRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tuning, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tuning), args.Error(1)
}

func (m *MockTuningRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*models.Tuning, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]*models.Tuning), args.Error(1)
}

func (m *MockTuningRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	args := m.Called(ctx, id, status, progress)
	return args.Error(0)
}

func (m *MockTuningRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	args := m.Called(ctx, id, errorMsg)
	return args.Error(0)
}

func (m *MockTuningRepository) SetRecordingKey(ctx context.Context, id uuid.UUID, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockTuningRepository) StoreOutcome(ctx context.Context, outcome *models.TuningOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

func (m *MockTuningRepository) GetOutcome(ctx context.Context, tuningID uuid.UUID) (*models.TuningOutcome, error) {
	args := m.Called(ctx, tuningID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TuningOutcome), args.Error(1)
}

// MockClipStore implements storage.ClipStore for testing
type MockClipStore struct {
	mock.Mock
}

func (m *MockClipStore) UploadClip(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockClipStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockClipStore) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockClipStore) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockTuner implements Tuner for testing
type MockTuner struct {
	mock.Mock
}

func (m *MockTuner) Tune(ctx context.Context, note notes.Note) (*tuner.Outcome, error) {
	args := m.Called(ctx, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tuner.Outcome), args.Error(1)
}

func newTuning(note notes.Note) (*models.Tuning, uuid.UUID) {
	id := uuid.New()
	return &models.Tuning{
		ID:        id.String(),
		SessionID: "session-1234567",
		Note:      string(note),
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, id
}

func TestProcessTuning_Success(t *testing.T) {
	tuning, id := newTuning(notes.E2)
	key := storage.RecordingKey(tuning.SessionID, tuning.ID)

	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, models.StatusProcessing, 10).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(tuning, nil)
	repo.On("UpdateStatus", mock.Anything, id, models.StatusProcessing, 50).Return(nil)
	repo.On("UpdateStatus", mock.Anything, id, models.StatusProcessing, 80).Return(nil)
	repo.On("SetRecordingKey", mock.Anything, id, key).Return(nil)
	repo.On("StoreOutcome", mock.Anything, mock.MatchedBy(func(o *models.TuningOutcome) bool {
		return o.TuningID == tuning.ID &&
			o.Result.RecordedHz == 90 &&
			o.Result.Verdict == models.VerdictTooHigh &&
			o.SampleRate == 48000 &&
			o.Samples == 48000
	})).Return(nil)
	repo.On("UpdateStatus", mock.Anything, id, models.StatusCompleted, 100).Return(nil)

	store := &MockClipStore{}
	store.On("UploadClip", mock.Anything, key, mock.MatchedBy(func(data []byte) bool {
		return len(data) > 44 && string(data[:4]) == "RIFF"
	})).Return(nil)

	pipeline := tuner.New(capture.NewToneCapturer(90), tuner.DefaultConfig())
	svc := NewTuningService(pipeline, repo, store, 1)

	require.NoError(t, svc.ProcessTuning(context.Background(), id))
	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestProcessTuning_NoStore(t *testing.T) {
	tuning, id := newTuning(notes.A2)

	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, mock.Anything, mock.Anything).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(tuning, nil)
	repo.On("StoreOutcome", mock.Anything, mock.AnythingOfType("*models.TuningOutcome")).Return(nil)

	pipeline := tuner.New(capture.NewToneCapturer(110), tuner.DefaultConfig())
	svc := NewTuningService(pipeline, repo, nil, 1)

	require.NoError(t, svc.ProcessTuning(context.Background(), id))
	repo.AssertNotCalled(t, "SetRecordingKey", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertCalled(t, "UpdateStatus", mock.Anything, id, models.StatusCompleted, 100)
}

func TestProcessTuning_ArchiveFailureStillCompletes(t *testing.T) {
	tuning, id := newTuning(notes.E2)

	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, mock.Anything, mock.Anything).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(tuning, nil)
	repo.On("StoreOutcome", mock.Anything, mock.Anything).Return(nil)

	store := &MockClipStore{}
	store.On("UploadClip", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))

	pipeline := tuner.New(capture.NewToneCapturer(82), tuner.DefaultConfig())
	svc := NewTuningService(pipeline, repo, store, 1)

	require.NoError(t, svc.ProcessTuning(context.Background(), id))
	repo.AssertNotCalled(t, "SetRecordingKey", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertCalled(t, "UpdateStatus", mock.Anything, id, models.StatusCompleted, 100)
}

func TestProcessTuning_DeviceError(t *testing.T) {
	tuning, id := newTuning(notes.E2)

	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, models.StatusProcessing, 10).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(tuning, nil)
	repo.On("UpdateError", mock.Anything, id, DeviceErrorMessage).Return(nil)

	mt := &MockTuner{}
	mt.On("Tune", mock.Anything, notes.E2).Return(nil, fmt.Errorf("capture: %w", capture.ErrNoInputDevice))

	svc := NewTuningService(mt, repo, nil, 1)

	// the failure is recorded on the tuning, not returned
	require.NoError(t, svc.ProcessTuning(context.Background(), id))
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "StoreOutcome", mock.Anything, mock.Anything)
}

func TestProcessTuning_InternalError(t *testing.T) {
	tuning, id := newTuning(notes.E2)

	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, models.StatusProcessing, 10).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(tuning, nil)
	repo.On("UpdateError", mock.Anything, id, mock.AnythingOfType("string")).Return(nil)

	mt := &MockTuner{}
	mt.On("Tune", mock.Anything, notes.E2).Return(nil, errors.New("analyze: fourier transform failed"))

	svc := NewTuningService(mt, repo, nil, 1)

	err := svc.ProcessTuning(context.Background(), id)
	assert.ErrorContains(t, err, "fourier transform failed")
	repo.AssertExpectations(t)
}

func TestProcessTuning_UnknownTuning(t *testing.T) {
	id := uuid.New()

	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, models.StatusProcessing, 10).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	svc := NewTuningService(&MockTuner{}, repo, nil, 1)
	assert.ErrorIs(t, svc.ProcessTuning(context.Background(), id), sql.ErrNoRows)
}

func TestEnqueue_QueueFull(t *testing.T) {
	svc := NewTuningService(&MockTuner{}, &MockTuningRepository{}, nil, 1)

	require.NoError(t, svc.Enqueue(uuid.New()))
	assert.ErrorIs(t, svc.Enqueue(uuid.New()), ErrQueueFull)
}

func TestStart_ProcessesQueue(t *testing.T) {
	tuning, id := newTuning(notes.D3)

	done := make(chan struct{})
	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, models.StatusProcessing, mock.Anything).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(tuning, nil)
	repo.On("StoreOutcome", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, id, models.StatusCompleted, 100).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	pipeline := tuner.New(capture.NewToneCapturer(147), tuner.DefaultConfig())
	svc := NewTuningService(pipeline, repo, nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	require.NoError(t, svc.Enqueue(id))

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not complete the tuning")
	}
}

func liveContext() any {
	return mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
}

func TestProcessTuning_CancelledCaptureStillRecordsFailure(t *testing.T) {
	tuning, id := newTuning(notes.E2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, models.StatusProcessing, 10).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(tuning, nil)
	repo.On("UpdateError", liveContext(), id, ShutdownMessage).Return(nil)

	mt := &MockTuner{}
	mt.On("Tune", mock.Anything, notes.E2).Return(nil, fmt.Errorf("capture: %w", context.Canceled))

	svc := NewTuningService(mt, repo, nil, 1)

	err := svc.ProcessTuning(ctx, id)
	assert.ErrorIs(t, err, context.Canceled)
	repo.AssertExpectations(t)
}

func TestStart_CancelledMarksQueuedTuningsFailed(t *testing.T) {
	first, second := uuid.New(), uuid.New()

	var marked sync.WaitGroup
	marked.Add(2)
	repo := &MockTuningRepository{}
	repo.On("UpdateError", liveContext(), mock.Anything, ShutdownMessage).
		Run(func(mock.Arguments) { marked.Done() }).
		Return(nil)

	mt := &MockTuner{}
	svc := NewTuningService(mt, repo, nil, 4)
	require.NoError(t, svc.Enqueue(first))
	require.NoError(t, svc.Enqueue(second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Start(ctx)

	done := make(chan struct{})
	go func() {
		marked.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queued tunings were not marked failed")
	}

	repo.AssertCalled(t, "UpdateError", mock.Anything, first, ShutdownMessage)
	repo.AssertCalled(t, "UpdateError", mock.Anything, second, ShutdownMessage)
	mt.AssertNotCalled(t, "Tune", mock.Anything, mock.Anything)
}

func TestProcessTuning_OrphanedRecordingDeleted(t *testing.T) {
	tuning, id := newTuning(notes.A2)
	key := storage.RecordingKey(tuning.SessionID, tuning.ID)

	repo := &MockTuningRepository{}
	repo.On("UpdateStatus", mock.Anything, id, mock.Anything, mock.Anything).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(tuning, nil)
	repo.On("SetRecordingKey", mock.Anything, id, key).Return(errors.New("connection reset"))
	repo.On("StoreOutcome", mock.Anything, mock.Anything).Return(nil)

	store := &MockClipStore{}
	store.On("UploadClip", mock.Anything, key, mock.Anything).Return(nil)
	store.On("DeleteFile", mock.Anything, key).Return(nil)

	pipeline := tuner.New(capture.NewToneCapturer(110), tuner.DefaultConfig())
	svc := NewTuningService(pipeline, repo, store, 1)

	require.NoError(t, svc.ProcessTuning(context.Background(), id))
	store.AssertExpectations(t)
	repo.AssertCalled(t, "UpdateStatus", mock.Anything, id, models.StatusCompleted, 100)
}

// TestFullTuningPipeline_Integration runs the worker against real postgres and minio
func TestFullTuningPipeline_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pg, err := pgContainer.Run(ctx,
		"postgres:15-alpine",
		pgContainer.WithDatabase("fretcheck_test"),
		pgContainer.WithUsername("testuser"),
		pgContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, pg.Terminate(ctx)) }()

	dbURL, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	mc, err := minio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, mc.Terminate(ctx)) }()

	minioURL, err := mc.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, runMigrations(ctx, db))

	store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:  minioURL,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "fretcheck-test-" + uuid.New().String()[:8],
	})
	require.NoError(t, err)

	repo := postgres.NewPostgresTuningRepository(db)
	pipeline := tuner.New(capture.NewToneCapturer(82), tuner.DefaultConfig())
	svc := NewTuningService(pipeline, repo, store, 4)

	tuning, id := newTuning(notes.E2)
	require.NoError(t, repo.Create(ctx, tuning))

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc.Start(workerCtx)
	require.NoError(t, svc.Enqueue(id))

	var final *models.Tuning
	require.Eventually(t, func() bool {
		final, err = repo.GetByID(ctx, id)
		return err == nil && (final.Status == models.StatusCompleted || final.Status == models.StatusFailed)
	}, 30*time.Second, 200*time.Millisecond)

	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
	assert.NotNil(t, final.CompletedAt)
	require.NotNil(t, final.RecordingKey)

	outcome, err := repo.GetOutcome(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, `Result: (Target Pitch: 82 Hz Recorded Pitch: 82 Hz): "Perfect!"`, outcome.Result.Report())
	assert.NotEmpty(t, outcome.Peaks)

	data, err := store.DownloadFile(ctx, *final.RecordingKey)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	schema, err := os.ReadFile("../../migrations/001_create_tunings.up.sql")
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(schema))
	return err
}
