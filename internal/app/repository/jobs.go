package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/model"
)

const jobColumns = `id, owner_id, filename, original_name, display_name, file_size,
	storage_key, language, provider, status, progress, provider_handle,
	transcript_text, segments, speakers, duration_seconds, word_count, confidence,
	error_message, summary, key_points, action_items, speaker_insights,
	created_at, updated_at, started_at, completed_at`

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// JobStore implements JobRepository over database/sql
type JobStore struct {
	*CommonDB
}

// NewJobStore creates a job store on top of a shared connection
func NewJobStore(common *CommonDB) *JobStore {
	return &JobStore{CommonDB: common}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Create inserts a pending job and fills in its id and timestamps
func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	now := s.now()
	job.Status = model.StatusPending
	job.Progress = 0
	job.CreatedAt = now
	job.UpdatedAt = now

	query := s.rebind(`INSERT INTO transcription_jobs (
			owner_id, filename, original_name, display_name, file_size,
			storage_key, language, status, progress, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	err := s.db.QueryRowContext(ctx, query,
		job.OwnerID, job.Filename, job.OriginalName, job.DisplayName, job.FileSize,
		job.StorageKey, job.Language, string(job.Status), job.Progress, now, now,
	).Scan(&job.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInsertFailed, err)
	}
	return nil
}

// GetByID loads a job, returning ErrNotFound when absent
func (s *JobStore) GetByID(ctx context.Context, id int64) (*model.Job, error) {
	query := s.rebind(`SELECT ` + jobColumns + ` FROM transcription_jobs WHERE id = ?`)
	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("transcription", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}
	return job, nil
}

// GetByProviderHandle finds the job a provider callback refers to
func (s *JobStore) GetByProviderHandle(ctx context.Context, handle string) (*model.Job, error) {
	query := s.rebind(`SELECT ` + jobColumns + ` FROM transcription_jobs WHERE provider_handle = ? ORDER BY id DESC LIMIT 1`)
	job, err := scanJob(s.db.QueryRowContext(ctx, query, handle))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("transcription with provider handle", handle)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}
	return job, nil
}

// ListByOwner returns one page of a user's jobs, newest first, plus the total
// number of matching jobs
func (s *JobStore) ListByOwner(ctx context.Context, ownerID int64, filter model.JobFilter) ([]*model.Job, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	where := ` WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if filter.Status != nil {
		where += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM transcription_jobs`+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}

	query := s.rebind(`SELECT ` + jobColumns + ` FROM transcription_jobs` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	args = append(args, limit, (page-1)*limit)

	jobs, err := s.queryJobs(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListByStatus returns up to limit jobs in the given status, oldest update first
func (s *JobStore) ListByStatus(ctx context.Context, status model.JobStatus, limit int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = maxPageSize
	}
	query := s.rebind(`SELECT ` + jobColumns + ` FROM transcription_jobs WHERE status = ? ORDER BY updated_at ASC, id ASC LIMIT ?`)
	return s.queryJobs(ctx, query, string(status), limit)
}

func (s *JobStore) queryJobs(ctx context.Context, query string, args ...interface{}) ([]*model.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}
	defer rows.Close()

	jobs := make([]*model.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return jobs, nil
}

// MarkProcessing moves a pending job to processing and records the provider handle
func (s *JobStore) MarkProcessing(ctx context.Context, id int64, handle, provider string) (bool, error) {
	now := s.now()
	changed, err := s.exec(ctx, `UPDATE transcription_jobs
		SET status = ?, provider_handle = ?, provider = ?, started_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(model.StatusProcessing), handle, provider, now, now, id, string(model.StatusPending))
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrUpdateFailed, err)
	}
	return changed, nil
}

// UpdateProgress raises the progress of a processing job. Equal or lower
// values leave the row untouched.
func (s *JobStore) UpdateProgress(ctx context.Context, id int64, progress int) (bool, error) {
	changed, err := s.exec(ctx, `UPDATE transcription_jobs
		SET progress = ?, updated_at = ?
		WHERE id = ? AND status = ? AND progress < ?`,
		progress, s.now(), id, string(model.StatusProcessing), progress)
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrUpdateFailed, err)
	}
	return changed, nil
}

// MarkCompleted stores the transcript and completes a processing job
func (s *JobStore) MarkCompleted(ctx context.Context, id int64, result *model.TranscriptPayload) (bool, error) {
	segments := result.Segments
	if segments == nil {
		segments = []model.Segment{}
	}
	speakers := result.Speakers
	if speakers == nil {
		speakers = []model.Speaker{}
	}
	segJSON, err := json.Marshal(segments)
	if err != nil {
		return false, fmt.Errorf("marshal segments: %w", err)
	}
	spkJSON, err := json.Marshal(speakers)
	if err != nil {
		return false, fmt.Errorf("marshal speakers: %w", err)
	}

	now := s.now()
	changed, err := s.exec(ctx, `UPDATE transcription_jobs
		SET status = ?, progress = 100, transcript_text = ?, segments = ?, speakers = ?,
			duration_seconds = ?, word_count = ?, confidence = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(model.StatusCompleted), result.Text, string(segJSON), string(spkJSON),
		result.DurationSeconds, result.WordCount, result.Confidence, now, now,
		id, string(model.StatusProcessing))
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrUpdateFailed, err)
	}
	return changed, nil
}

// MarkError records a failure on a non-terminal job
func (s *JobStore) MarkError(ctx context.Context, id int64, message string) (bool, error) {
	now := s.now()
	changed, err := s.exec(ctx, `UPDATE transcription_jobs
		SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(model.StatusError), message, now, now,
		id, string(model.StatusPending), string(model.StatusProcessing))
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrUpdateFailed, err)
	}
	return changed, nil
}

// MarkCancelled cancels a non-terminal job
func (s *JobStore) MarkCancelled(ctx context.Context, id int64) (bool, error) {
	now := s.now()
	changed, err := s.exec(ctx, `UPDATE transcription_jobs
		SET status = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(model.StatusCancelled), now, now,
		id, string(model.StatusPending), string(model.StatusProcessing))
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrUpdateFailed, err)
	}
	return changed, nil
}

// SaveAnalysis attaches analysis output to a completed job
func (s *JobStore) SaveAnalysis(ctx context.Context, id int64, analysis *model.Analysis) (bool, error) {
	keyPoints, err := json.Marshal(nonNil(analysis.KeyPoints))
	if err != nil {
		return false, fmt.Errorf("marshal key points: %w", err)
	}
	actionItems, err := json.Marshal(nonNil(analysis.ActionItems))
	if err != nil {
		return false, fmt.Errorf("marshal action items: %w", err)
	}
	insights := analysis.SpeakerInsights
	if insights == nil {
		insights = []model.SpeakerInsight{}
	}
	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return false, fmt.Errorf("marshal speaker insights: %w", err)
	}

	changed, err := s.exec(ctx, `UPDATE transcription_jobs
		SET summary = ?, key_points = ?, action_items = ?, speaker_insights = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		analysis.Summary, string(keyPoints), string(actionItems), string(insightsJSON), s.now(),
		id, string(model.StatusCompleted))
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrUpdateFailed, err)
	}
	return changed, nil
}

// SumStorageBytes totals the size of the objects a user holds in storage.
// Jobs sharing a storage key (a job and its retries) count once. Cancelled
// jobs keep their object and still count.
func (s *JobStore) SumStorageBytes(ctx context.Context, ownerID int64) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COALESCE(SUM(size), 0) FROM (
			SELECT MAX(file_size) AS size FROM transcription_jobs
			WHERE owner_id = ? AND storage_key <> '' GROUP BY storage_key
			UNION ALL
			SELECT file_size AS size FROM transcription_jobs
			WHERE owner_id = ? AND storage_key = ''
		) AS held`),
		ownerID, ownerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}
	return total, nil
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job                                       model.Job
		status                                    string
		ownerID                                   sql.NullInt64
		displayName, handle, transcript, errMsg   sql.NullString
		segments, speakers                        sql.NullString
		summary, keyPoints, actionItems, insights sql.NullString
		duration, confidence                      sql.NullFloat64
		wordCount                                 sql.NullInt64
		startedAt, completedAt                    sql.NullTime
	)

	err := row.Scan(
		&job.ID, &ownerID, &job.Filename, &job.OriginalName, &displayName, &job.FileSize,
		&job.StorageKey, &job.Language, &job.Provider, &status, &job.Progress, &handle,
		&transcript, &segments, &speakers, &duration, &wordCount, &confidence,
		&errMsg, &summary, &keyPoints, &actionItems, &insights,
		&job.CreatedAt, &job.UpdatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = model.JobStatus(status)
	if ownerID.Valid {
		job.OwnerID = &ownerID.Int64
	}
	job.DisplayName = nullString(displayName)
	job.ProviderHandle = nullString(handle)
	job.TranscriptText = nullString(transcript)
	job.ErrorMessage = nullString(errMsg)
	if duration.Valid {
		job.DurationSeconds = &duration.Float64
	}
	if confidence.Valid {
		job.Confidence = &confidence.Float64
	}
	if wordCount.Valid {
		wc := int(wordCount.Int64)
		job.WordCount = &wc
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	if segments.Valid {
		if err := json.Unmarshal([]byte(segments.String), &job.Segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
	}
	if speakers.Valid {
		if err := json.Unmarshal([]byte(speakers.String), &job.Speakers); err != nil {
			return nil, fmt.Errorf("decode speakers: %w", err)
		}
	}

	if summary.Valid {
		analysis := &model.Analysis{Summary: summary.String}
		if err := decodeOptional(keyPoints, &analysis.KeyPoints); err != nil {
			return nil, fmt.Errorf("decode key points: %w", err)
		}
		if err := decodeOptional(actionItems, &analysis.ActionItems); err != nil {
			return nil, fmt.Errorf("decode action items: %w", err)
		}
		if err := decodeOptional(insights, &analysis.SpeakerInsights); err != nil {
			return nil, fmt.Errorf("decode speaker insights: %w", err)
		}
		job.Analysis = analysis
	}

	return &job, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func decodeOptional(v sql.NullString, dst interface{}) error {
	if !v.Valid || v.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(v.String), dst)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
